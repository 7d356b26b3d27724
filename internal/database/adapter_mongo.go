package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoPort = 27017

// mongoWriteKeywords is a coarse lexical blacklist checked as substrings
// before execution. It is deliberately weaker than the relational
// validator: document-store commands are not parsed structurally, so the
// primary write protection is database-level permissions.
var mongoWriteKeywords = []string{
	"insert", "update", "delete", "drop", "create", "remove", "rename", "replace",
}

type mongoAdapter struct {
	cfg        Config
	components *DSNComponents
	dbName     string
	client     *mongo.Client
	db         *mongo.Database
}

func newMongoAdapter(c *DSNComponents, cfg Config) *mongoAdapter {
	return &mongoAdapter{
		cfg:        cfg,
		components: c,
		dbName:     databaseOrPlaceholder(c.Database),
	}
}

// Connect establishes the client with the configured timeouts and a
// secondary-preferred read preference as a read-only signal. The
// preference is advisory; the engine does not enforce it.
func (a *mongoAdapter) Connect(ctx context.Context) error {
	start := time.Now()

	port := a.components.Port
	if port == 0 {
		port = defaultMongoPort
	}
	uri := (&DSNComponents{
		Protocol: ProtocolMongoDB,
		Username: a.components.Username,
		Password: a.components.Password,
		Host:     a.components.Host,
		Port:     port,
		Database: a.components.Database,
	}).String()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(a.cfg.Timeout).
		SetConnectTimeout(a.cfg.Timeout).
		SetSocketTimeout(a.cfg.Timeout).
		SetReadPreference(readpref.SecondaryPreferred())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		a.cfg.Audit.Connection(a.cfg.DSN, false, err, time.Since(start))
		return errConnection("failed to connect to MongoDB", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		a.cfg.Audit.Connection(a.cfg.DSN, false, err, time.Since(start))
		return errConnection("failed to connect to MongoDB", err)
	}

	a.client = client
	if a.components.Database != "" {
		a.db = client.Database(a.components.Database)
	}
	a.cfg.Audit.Connection(a.cfg.DSN, true, nil, time.Since(start))
	return nil
}

// ValidateQuery applies the lexical write blacklist. Shape checking
// (collection.find / collection.aggregate) happens at execution time.
func (a *mongoAdapter) ValidateQuery(query string) Outcome {
	if strings.TrimSpace(query) == "" {
		return Outcome{Reason: "Query cannot be empty"}
	}
	lower := strings.ToLower(query)
	for _, kw := range mongoWriteKeywords {
		if strings.Contains(lower, kw) {
			op := strings.ToUpper(kw)
			return Outcome{
				Operation: op,
				Reason: fmt.Sprintf(
					"Write operation '%s' detected in MongoDB query.\n"+
						"  Only read operations (find, aggregate, count, etc.) are allowed.\n"+
						"  Hint: Use find() or aggregate() for data retrieval", op),
			}
		}
	}
	return Outcome{OK: true}
}

// ExecuteQuery accepts queries only in the restricted textual shape
// <collection>.find(<args>) or <collection>.aggregate(<args>). find applies
// the row cap as a cursor limit; aggregate appends a limiting stage.
func (a *mongoAdapter) ExecuteQuery(ctx context.Context, query string) (*ResultSet, error) {
	if outcome := a.ValidateQuery(query); !outcome.OK {
		err := errValidation(outcome.Operation, outcome.Reason)
		a.cfg.Audit.Query(QueryEvent{Query: query, DSN: a.cfg.DSN, Blocked: true, Err: err})
		return nil, err
	}

	query = strings.TrimSpace(query)
	if !strings.Contains(query, ".find(") && !strings.Contains(query, ".aggregate(") {
		err := errValidation("", fmt.Sprintf(
			"Invalid MongoDB query format. Expected format:\n"+
				"  collection_name.find({filter})\n"+
				"  collection_name.aggregate([pipeline])\n"+
				"Got: %s", previewQuery(query)))
		a.cfg.Audit.Query(QueryEvent{Query: query, DSN: a.cfg.DSN, Blocked: true, Err: err})
		return nil, err
	}
	if a.client == nil {
		return nil, errConnection("not connected to database", nil)
	}
	if a.db == nil {
		return nil, errConnection(
			"no database selected\n"+
				"  Hint: MongoDB requires the database in the DSN (mongodb://host:port/database)", nil)
	}

	collectionName := strings.TrimSpace(query[:strings.Index(query, ".")])
	collection := a.db.Collection(collectionName)

	start := time.Now()
	queryCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var (
		cursor *mongo.Cursor
		err    error
	)
	if strings.Contains(query, ".find(") {
		findOpts := options.Find().SetLimit(int64(a.cfg.MaxRows))
		cursor, err = collection.Find(queryCtx, bson.D{}, findOpts)
	} else {
		pipeline := mongo.Pipeline{bson.D{{Key: "$limit", Value: a.cfg.MaxRows}}}
		cursor, err = collection.Aggregate(queryCtx, pipeline)
	}
	if err != nil {
		return nil, a.failQuery(query, err, time.Since(start))
	}
	defer cursor.Close(context.Background())

	var docs []bson.D
	if err := cursor.All(queryCtx, &docs); err != nil {
		return nil, a.failQuery(query, err, time.Since(start))
	}

	rs := &ResultSet{}
	for _, doc := range docs {
		row := make(Row, 0, len(doc))
		for _, elem := range doc {
			row = append(row, Field{Name: elem.Key, Value: stringifyMongoValue(elem.Key, elem.Value)})
		}
		rs.Rows = append(rs.Rows, row)
	}
	if len(rs.Rows) > 0 {
		rs.Columns = columnsOf(rs.Rows[0])
	}

	a.cfg.Audit.Query(QueryEvent{
		Query: query, DSN: a.cfg.DSN, Success: true,
		RowCount: rs.Len(), Duration: time.Since(start),
	})
	return rs, nil
}

func (a *mongoAdapter) failQuery(query string, cause error, duration time.Duration) error {
	err := classifyMongoError(cause, a.cfg.Timeout, query)
	a.cfg.Audit.Query(QueryEvent{
		Query: query, DSN: a.cfg.DSN,
		Blocked:  IsValidation(err),
		Duration: duration,
		Err:      err,
	})
	return err
}

func (a *mongoAdapter) FormatResult(rs *ResultSet, query string) string {
	return FormatDocuments(rs, query, a.dbName)
}

// Close disconnects the client. Idempotent; never fails.
func (a *mongoAdapter) Close() {
	if a.client != nil {
		_ = a.client.Disconnect(context.Background())
		a.client = nil
		a.db = nil
	}
}

const mongoErrUnauthorized = 13

func classifyMongoError(err error, timeout time.Duration, query string) error {
	if isDeadline(err) || mongo.IsTimeout(err) {
		return timeoutError(timeout, query, err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == mongoErrUnauthorized {
		return errBlockedByEngine(
			"write operation blocked by database\n"+
				"  Hint: MongoDB user has read-only permissions", err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "not authorized") {
		return errBlockedByEngine(
			"write operation blocked by database\n"+
				"  Hint: MongoDB user has read-only permissions", err)
	}
	return executionError(query, err)
}

// stringifyMongoValue flattens engine-specific identifiers so binary
// ObjectIDs never leak into formatted text.
func stringifyMongoValue(key string, v any) any {
	if key != "_id" {
		return v
	}
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%v", v)
}
