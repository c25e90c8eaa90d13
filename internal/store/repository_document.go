package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/models"
)

// PostgresStore is the PostgreSQL implementation of [DocumentStore].
//
// Every collection is a table of (id BIGSERIAL, body JSONB). Unique fields
// are generated columns with a UNIQUE constraint, so a violation reports
// "Key (<field>)=(<value>)" in the driver error detail. Field names reach
// SQL only after passing [ValidField]; values are always bound.
type PostgresStore struct {
	db      *DB
	logger  *logger.Logger
	builder sq.StatementBuilderType
}

// NewPostgresStore constructs a [PostgresStore] over db.
func NewPostgresStore(db *DB, logger *logger.Logger) *PostgresStore {
	logger.Debug().Msg("creating postgres document store")
	return &PostgresStore{
		db:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func table(collection string) (string, error) {
	if !knownCollection(collection) {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return collection, nil
}

func textPath(field string) string    { return "body->>'" + field + "'" }
func jsonPath(field string) string    { return "body->'" + field + "'" }
func numericPath(field string) string { return "(" + textPath(field) + ")::numeric" }

var rangeOps = map[Op]string{OpGt: ">", OpGte: ">=", OpLt: "<", OpLte: "<="}

// buildListQuery translates filter into a SELECT over collection.
func (s *PostgresStore) buildListQuery(collection string, filter Filter) (string, []any, error) {
	tbl, err := table(collection)
	if err != nil {
		return "", nil, err
	}

	q := s.builder.Select("id", "body").From(tbl)
	for _, c := range filter.Conditions {
		if !ValidField(c.Field) {
			return "", nil, &CastError{Path: "field", Value: c.Field}
		}
		switch c.Op {
		case OpEq:
			q = q.Where(sq.Expr(textPath(c.Field)+" = ?", c.Values[0]))
		case OpIn:
			q = q.Where(sq.Eq{textPath(c.Field): c.Values})
		default:
			sign, ok := rangeOps[c.Op]
			if !ok {
				return "", nil, &CastError{Path: "operator", Value: string(c.Op)}
			}
			for _, raw := range c.Values {
				bound, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return "", nil, &CastError{Path: c.Field, Value: raw, Err: err}
				}
				q = q.Where(sq.Expr(numericPath(c.Field)+" "+sign+" ?", bound))
			}
		}
	}

	orderBy := make([]string, 0, len(filter.Sort)+1)
	for _, k := range filter.Sort {
		if !ValidField(k.Field) {
			return "", nil, &CastError{Path: ParamSort, Value: k.Field}
		}
		if k.Desc {
			orderBy = append(orderBy, jsonPath(k.Field)+" DESC")
		} else {
			orderBy = append(orderBy, jsonPath(k.Field))
		}
	}
	q = q.OrderBy(append(orderBy, "id")...)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if offset := filter.Offset(); offset > 0 {
		q = q.Offset(uint64(offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// List implements DocumentStore.
func (s *PostgresStore) List(ctx context.Context, collection string, filter Filter) ([]models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := s.buildListQuery(collection, filter)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	err = s.db.withRetry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		defer rows.Close()

		docs = docs[:0]
		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, doc.Project(filter.Fields))
		}
		return rows.Err()
	})
	if err != nil {
		log.Err(err).Str("func", "*PostgresStore.List").Str("collection", collection).Msg("error listing documents")
		return nil, err
	}

	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// Get implements DocumentStore.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (models.Document, error) {
	tbl, err := table(collection)
	if err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query, args, err := s.builder.Select("id", "body").From(tbl).Where(sq.Eq{"id": n}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return s.queryOne(ctx, "*PostgresStore.Get", query, args)
}

// FindOne implements DocumentStore.
func (s *PostgresStore) FindOne(ctx context.Context, collection, field, value string) (models.Document, error) {
	tbl, err := table(collection)
	if err != nil {
		return nil, err
	}
	if !ValidField(field) {
		return nil, &CastError{Path: "field", Value: field}
	}

	query, args, err := s.builder.Select("id", "body").From(tbl).
		Where(sq.Expr(textPath(field)+" = ?", value)).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return s.queryOne(ctx, "*PostgresStore.FindOne", query, args)
}

// Create implements DocumentStore.
func (s *PostgresStore) Create(ctx context.Context, collection string, doc models.Document) (models.Document, error) {
	tbl, err := table(collection)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc.Without(models.IDField))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	query, args, err := s.builder.Insert(tbl).
		Columns("body").
		Values(sq.Expr("?::jsonb", string(body))).
		Suffix("RETURNING id, body").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return s.queryOne(ctx, "*PostgresStore.Create", query, args)
}

// Update implements DocumentStore. Keys with a nil value are removed from
// the stored body with the jsonb "-" operator, everything else is merged
// with "||".
func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error) {
	tbl, err := table(collection)
	if err != nil {
		return nil, err
	}
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := models.Document{}
	var removed []string
	for k, v := range patch.Without(models.IDField) {
		if v == nil {
			removed = append(removed, k)
			continue
		}
		set[k] = v
	}
	slices.Sort(removed)

	body, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	expr := "(body || ?::jsonb)" + strings.Repeat(" - ?", len(removed))
	exprArgs := make([]any, 0, len(removed)+1)
	exprArgs = append(exprArgs, string(body))
	for _, k := range removed {
		exprArgs = append(exprArgs, k)
	}

	query, args, err := s.builder.Update(tbl).
		Set("body", sq.Expr(expr, exprArgs...)).
		Where(sq.Eq{"id": n}).
		Suffix("RETURNING id, body").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return s.queryOne(ctx, "*PostgresStore.Update", query, args)
}

// Delete implements DocumentStore.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	log := logger.FromContext(ctx)

	tbl, err := table(collection)
	if err != nil {
		return err
	}
	n, err := parseID(id)
	if err != nil {
		return err
	}

	query, args, err := s.builder.Delete(tbl).Where(sq.Eq{"id": n}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = s.db.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		log.Err(err).Str("func", "*PostgresStore.Delete").Msg("error deleting document")
		return err
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, fn, query string, args []any) (models.Document, error) {
	log := logger.FromContext(ctx)

	var doc models.Document
	err := s.db.withRetry(ctx, func() error {
		var err error
		doc, err = scanDocument(s.db.QueryRowContext(ctx, query, args...))
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrDocumentNotFound) {
			log.Err(err).Str("func", fn).Msg("error querying document")
		}
		return nil, err
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		id   int64
		body []byte
	)
	if err := row.Scan(&id, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	doc := models.Document{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodingDocument, err)
		}
	}
	doc[models.IDField] = id
	return doc, nil
}
