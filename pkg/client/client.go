// Package client provides the AWS Athena implementation of query.Backend.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/uuid"

	"github.com/lolsZz/aws-athena-mcp/pkg/query"
)

// athenaMaxPageSize is the largest page GetQueryResults will serve.
const athenaMaxPageSize = 1000

// api is the subset of the Athena SDK the client uses. Tests substitute a
// scripted implementation.
type api interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput,
		optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput,
		optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput,
		optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// Config holds Athena client configuration. OutputLocation is the fixed
// result-storage destination applied to every submission; it is required.
type Config struct {
	Region          string `yaml:"region"`
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	OutputLocation  string `yaml:"output_location"`
	Workgroup       string `yaml:"workgroup"`
	Catalog         string `yaml:"catalog"`
}

// Client calls AWS Athena. It implements query.Backend.
type Client struct {
	api api
	cfg Config
	log *slog.Logger
}

// New creates a new Athena client, resolving AWS credentials from the
// default chain plus any explicit region, profile, or static keys.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.OutputLocation == "" {
		return nil, fmt.Errorf("athena output location is required")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &Client{
		api: athena.NewFromConfig(awsCfg),
		cfg: cfg,
		log: slog.Default(),
	}, nil
}

// newWithAPI wires a client over a provided API implementation. Used by tests.
func newWithAPI(a api, cfg Config) *Client {
	return &Client{api: a, cfg: cfg, log: slog.Default()}
}

// Submit starts one query execution and returns the Athena-assigned id.
// The client request token makes a network-level retry by the SDK idempotent
// without this system ever submitting twice.
func (c *Client) Submit(ctx context.Context, in query.SubmitInput) (string, error) {
	execCtx := &types.QueryExecutionContext{Database: aws.String(in.Database)}
	if c.cfg.Catalog != "" {
		execCtx.Catalog = aws.String(c.cfg.Catalog)
	}

	input := &athena.StartQueryExecutionInput{
		QueryString:           aws.String(in.SQL),
		ClientRequestToken:    aws.String(uuid.NewString()),
		QueryExecutionContext: execCtx,
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(c.cfg.OutputLocation),
		},
	}
	if c.cfg.Workgroup != "" {
		input.WorkGroup = aws.String(c.cfg.Workgroup)
	}

	out, err := c.api.StartQueryExecution(ctx, input)
	if err != nil {
		var ire *types.InvalidRequestException
		if errors.As(err, &ire) {
			return "", &query.Error{Code: query.CodeInvalidRequest, Message: ire.ErrorMessage()}
		}
		return "", fmt.Errorf("starting query execution: %w", err)
	}
	if out.QueryExecutionId == nil || *out.QueryExecutionId == "" {
		return "", fmt.Errorf("athena returned no query execution id")
	}

	c.log.Debug("query execution started",
		"query_execution_id", *out.QueryExecutionId, "database", in.Database, "workgroup", c.cfg.Workgroup)
	return *out.QueryExecutionId, nil
}

// Status fetches the current execution state. An unrecognized execution id
// maps to QUERY_NOT_FOUND; numeric statistics default to zero when absent.
func (c *Client) Status(ctx context.Context, executionID string) (*query.Status, error) {
	out, err := c.api.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		var ire *types.InvalidRequestException
		if errors.As(err, &ire) {
			return nil, &query.Error{
				Code:        query.CodeQueryNotFound,
				Message:     "query execution not found",
				ExecutionID: executionID,
			}
		}
		return nil, fmt.Errorf("getting query execution: %w", err)
	}

	return decodeStatus(out.QueryExecution), nil
}

// decodeStatus maps an Athena QueryExecution to a Status. A missing or
// unrecognized state decodes as UNKNOWN, which callers treat as non-terminal.
func decodeStatus(exec *types.QueryExecution) *query.Status {
	st := &query.Status{State: query.StateUnknown}
	if exec == nil {
		return st
	}

	if exec.Status != nil {
		st.State = mapState(exec.Status.State)
		st.StateChangeReason = aws.ToString(exec.Status.StateChangeReason)
	}
	if exec.Statistics != nil {
		st.Statistics.BytesScanned = aws.ToInt64(exec.Statistics.DataScannedInBytes)
		st.Statistics.ExecutionTimeMillis = aws.ToInt64(exec.Statistics.EngineExecutionTimeInMillis)
	}
	return st
}

// mapState converts an Athena execution state to the query state enum.
func mapState(s types.QueryExecutionState) query.State {
	switch s {
	case types.QueryExecutionStateQueued:
		return query.StateQueued
	case types.QueryExecutionStateRunning:
		return query.StateRunning
	case types.QueryExecutionStateSucceeded:
		return query.StateSucceeded
	case types.QueryExecutionStateFailed:
		return query.StateFailed
	case types.QueryExecutionStateCancelled:
		return query.StateCancelled
	default:
		return query.StateUnknown
	}
}

// FetchPage fetches up to maxRows raw rows. Athena caps a single
// GetQueryResults call at 1000 rows, so larger requests follow NextToken
// until maxRows rows are gathered or the result set is exhausted. The header
// row appears only on the first page and is left in place for the decoder.
func (c *Client) FetchPage(ctx context.Context, executionID string, maxRows int) (*query.Page, error) {
	page := &query.Page{Rows: [][]*string{}}

	remaining := maxRows
	var token *string
	first := true

	for remaining > 0 {
		size := remaining
		if size > athenaMaxPageSize {
			size = athenaMaxPageSize
		}

		out, err := c.api.GetQueryResults(ctx, &athena.GetQueryResultsInput{
			QueryExecutionId: aws.String(executionID),
			MaxResults:       aws.Int32(int32(size)), // #nosec G115 -- size is bounded by athenaMaxPageSize
			NextToken:        token,
		})
		if err != nil {
			var ire *types.InvalidRequestException
			if errors.As(err, &ire) {
				return nil, &query.Error{
					Code:        query.CodeQueryNotFound,
					Message:     "query execution not found",
					ExecutionID: executionID,
				}
			}
			return nil, fmt.Errorf("getting query results: %w", err)
		}
		if out.ResultSet == nil {
			break
		}

		if first {
			page.Columns = columnNames(out.ResultSet.ResultSetMetadata)
			first = false
		}

		if len(out.ResultSet.Rows) == 0 {
			break
		}
		for _, row := range out.ResultSet.Rows {
			page.Rows = append(page.Rows, datumValues(row.Data))
		}
		remaining -= len(out.ResultSet.Rows)

		token = out.NextToken
		if token == nil {
			break
		}
	}

	return page, nil
}

// columnNames extracts column names in order. An unnamed column becomes an
// empty string rather than being dropped, preserving positional alignment.
func columnNames(meta *types.ResultSetMetadata) []string {
	if meta == nil {
		return []string{}
	}
	names := make([]string, 0, len(meta.ColumnInfo))
	for _, col := range meta.ColumnInfo {
		names = append(names, aws.ToString(col.Name))
	}
	return names
}

// datumValues extracts raw cell values. A datum with no value stays nil.
func datumValues(data []types.Datum) []*string {
	cells := make([]*string, 0, len(data))
	for _, d := range data {
		cells = append(cells, d.VarCharValue)
	}
	return cells
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases resources. The Athena client holds no persistent
// connections, so this is a no-op kept for toolkit lifecycle symmetry.
func (c *Client) Close() error {
	return nil
}

// Verify interface compliance.
var _ query.Backend = (*Client)(nil)
