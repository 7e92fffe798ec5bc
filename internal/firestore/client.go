package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	fs "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

var _ state.Service = (*Client)(nil)

const (
	DefaultDatabase   = "(default)"
	DefaultCollection = "todos"
	defaultTimeout    = 10 * time.Second
	listPageSize      = 300
)

// Config locates the collection and selects credentials. At most one of
// APIKey, AccessToken and CredentialsFile is used, in that order. With none
// set, requests go out unauthenticated when Endpoint is set (emulator) and
// with application default credentials otherwise.
type Config struct {
	ProjectID  string
	Database   string
	Collection string

	APIKey          string
	AccessToken     string
	CredentialsFile string
	Endpoint        string

	Timeout time.Duration
}

// Client stores tasks as Firestore documents through the REST API.
type Client struct {
	docs    *fs.ProjectsDatabasesDocumentsService
	parent  string
	coll    string
	timeout time.Duration
}

// NewClient builds a Client from cfg.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	project := strings.TrimSpace(cfg.ProjectID)
	if project == "" {
		return nil, fmt.Errorf("firestore project_id is required")
	}
	database := strings.TrimSpace(cfg.Database)
	if database == "" {
		database = DefaultDatabase
	}
	coll := strings.TrimSpace(cfg.Collection)
	if coll == "" {
		coll = DefaultCollection
	}
	if strings.Contains(coll, "/") {
		return nil, fmt.Errorf("invalid collection %q", coll)
	}

	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := fs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore service: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		docs:    svc.Projects.Databases.Documents,
		parent:  fmt.Sprintf("projects/%s/databases/%s/documents", project, database),
		coll:    coll,
		timeout: timeout,
	}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		if !strings.Contains(endpoint, "://") {
			endpoint = "http://" + endpoint
		}
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	switch {
	case strings.TrimSpace(cfg.APIKey) != "":
		opts = append(opts, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	case strings.TrimSpace(cfg.AccessToken) != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(cfg.AccessToken)})
		opts = append(opts, option.WithTokenSource(ts))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, fs.DatastoreScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	case endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts, nil
}

// Create adds a document with a server-assigned identifier.
func (c *Client) Create(ctx context.Context, fields task.Fields) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	doc, err := c.docs.CreateDocument(c.parent, c.coll, encodeFields(fields)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	id := documentID(doc.Name)
	if id == "" {
		return "", fmt.Errorf("create document: response has no name")
	}
	return id, nil
}

// List returns every document in the collection, following page tokens.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out []task.Task
	call := c.docs.List(c.parent, c.coll).PageSize(listPageSize)
	err := call.Pages(ctx, func(page *fs.ListDocumentsResponse) error {
		for _, doc := range page.Documents {
			t, err := decodeDocument(doc)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

// Update writes only the fields set in patch. The document must exist.
func (c *Client) Update(ctx context.Context, id string, patch task.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.docs.Patch(c.name(id), encodePatch(patch)).
		UpdateMaskFieldPaths(patch.FieldPaths()...).
		CurrentDocumentExists(true).
		Context(ctx).
		Do()
	if err != nil {
		return docError("update", id, err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document succeeds.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.docs.Delete(c.name(id)).Context(ctx).Do(); err != nil {
		return docError("delete", id, err)
	}
	return nil
}

func (c *Client) name(id string) string {
	return c.parent + "/" + c.coll + "/" + id
}

// docError wraps a failed document call; a 404 also matches
// task.ErrNoDocument.
func docError(op, id string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s document %s: %w: %w", op, id, task.ErrNoDocument, err)
	}
	return fmt.Errorf("%s document %s: %w", op, id, err)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func documentID(name string) string {
	if name == "" {
		return ""
	}
	return path.Base(name)
}
