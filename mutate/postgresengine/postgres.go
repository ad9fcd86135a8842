package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/kilimnik/refine/mutate"
	"github.com/kilimnik/refine/mutate/postgresengine/internal/adapters"
)

const (
	defaultIDColumn          = "id"
	metaKeyTable             = "table"
	logMsgBuildQueryFailed   = "failed to build update query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgDecodeRecordFailed = "failed to decode record from database row"
	logMsgRecordsMissing     = "fewer records were updated than requested"
	logMsgRecordsUpdated     = "records updated"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "data provider operation: "
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrResource          = "resource"
	logAttrTable             = "table"
	logAttrRecordCount       = "record_count"
	logAttrRequestedCount    = "requested_count"
	logAttrDurationMS        = "duration_ms"
	logActionUpdate          = "update"
	dialectPostgres          = "postgres"
	metricUpdateDuration     = "provider_update_duration"
	metricRecordsUpdated     = "provider_records_updated"
	metricDatabaseErrors     = "provider_database_errors"
	spanNameUpdate           = "postgres.update_many"
	statusSuccess            = "success"
	statusError              = "error"
)

type sqlQueryString = string

// Provider is a PostgreSQL-backed data provider. It implements both
// mutate.DataProvider and mutate.BulkDataProvider; a whole batch is applied
// with a single UPDATE statement and the updated rows are returned.
//
// Resource names map to table names verbatim unless a table mapping is
// configured or the request metadata carries a "table" entry.
type Provider struct {
	db               adapters.DBAdapter
	tables           map[mutate.ResourceName]string
	idColumn         string
	logger           mutate.Logger
	contextualLogger mutate.ContextualLogger
	metricsCollector mutate.MetricsCollector
	tracingCollector mutate.TracingCollector
}

// NewProviderFromPGXPool creates a new Provider using a pgx Pool with optional configuration.
func NewProviderFromPGXPool(db *pgxpool.Pool, options ...Option) (Provider, error) {
	if db == nil {
		return Provider{}, mutate.ErrNilDatabaseConnection
	}

	return newProvider(adapters.NewPGXAdapter(db), options...)
}

// NewProviderFromSQLDB creates a new Provider using a sql.DB with optional configuration.
func NewProviderFromSQLDB(db *sql.DB, options ...Option) (Provider, error) {
	if db == nil {
		return Provider{}, mutate.ErrNilDatabaseConnection
	}

	return newProvider(adapters.NewSQLAdapter(db), options...)
}

// NewProviderFromSQLX creates a new Provider using a sqlx.DB with optional configuration.
func NewProviderFromSQLX(db *sqlx.DB, options ...Option) (Provider, error) {
	if db == nil {
		return Provider{}, mutate.ErrNilDatabaseConnection
	}

	return newProvider(adapters.NewSQLXAdapter(db), options...)
}

func newProvider(db adapters.DBAdapter, options ...Option) (Provider, error) {
	p := Provider{
		db:       db,
		idColumn: defaultIDColumn,
	}

	for _, option := range options {
		if err := option(&p); err != nil {
			return Provider{}, err
		}
	}

	return p, nil
}

// Update applies the partial value set to a single record and returns the
// updated record.
func (p Provider) Update(
	ctx context.Context,
	resource mutate.ResourceName,
	id mutate.RecordID,
	values mutate.Values,
	meta mutate.Metadata,
) (mutate.Record, error) {

	records, err := p.UpdateMany(ctx, resource, []mutate.RecordID{id}, values, meta)
	if err != nil {
		return nil, err
	}

	return records[0], nil
}

// UpdateMany applies the partial value set to all records matching the given
// identifiers with a single UPDATE statement and returns the updated records.
//
// When fewer rows come back than distinct identifiers were requested, the
// batch is reported as failed with mutate.ErrRecordsNotFound. The statement
// has been executed at that point; the caller decides how to proceed.
func (p Provider) UpdateMany(
	ctx context.Context,
	resource mutate.ResourceName,
	ids []mutate.RecordID,
	values mutate.Values,
	meta mutate.Metadata,
) ([]mutate.Record, error) {

	ctx, span := p.startUpdateSpan(ctx, resource, ids)

	table := p.tableFor(resource, meta)
	distinctIDs := distinct(ids)

	sqlQuery, buildQueryErr := p.buildUpdateQuery(table, distinctIDs, values)
	if buildQueryErr != nil {
		p.logError(ctx, logMsgBuildQueryFailed, buildQueryErr, logAttrResource, resource)
		p.finishUpdateSpanError(span, buildQueryErr)

		return nil, buildQueryErr
	}

	rows, duration, queryErr := p.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		p.recordErrorMetrics(ctx, resource)
		p.finishUpdateSpanError(span, queryErr)

		return nil, queryErr
	}
	defer p.closeRows(ctx, rows)

	records, scanErr := p.processQueryResults(ctx, rows)
	if scanErr != nil {
		p.recordErrorMetrics(ctx, resource)
		p.finishUpdateSpanError(span, scanErr)

		return nil, scanErr
	}

	if validateErr := p.validateUpdateResult(ctx, records, distinctIDs, resource); validateErr != nil {
		p.finishUpdateSpanError(span, validateErr)

		return nil, validateErr
	}

	p.logOperation(ctx, logMsgRecordsUpdated,
		logAttrResource, resource,
		logAttrTable, table,
		logAttrRecordCount, len(records),
		logAttrDurationMS, toMilliseconds(duration))

	p.recordSuccessMetrics(ctx, resource, len(records), duration)
	p.finishUpdateSpanSuccess(span, len(records), duration)

	return records, nil
}

// tableFor resolves the table name for a resource: request metadata first,
// then the configured mapping, then the resource name itself.
func (p Provider) tableFor(resource mutate.ResourceName, meta mutate.Metadata) string {
	if meta != nil {
		if table, ok := meta[metaKeyTable].(string); ok && table != "" {
			return table
		}
	}

	if table, ok := p.tables[resource]; ok {
		return table
	}

	return resource
}

// buildUpdateQuery renders the batch update as a single statement returning
// the complete updated rows as JSON, so that scanning stays independent of
// the table's column set.
func (p Provider) buildUpdateQuery(
	table string,
	ids []mutate.RecordID,
	values mutate.Values,
) (sqlQueryString, error) {

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(table).
		Set(goqu.Record(values)).
		Where(goqu.C(p.idColumn).In(ids)).
		Returning(goqu.L(fmt.Sprintf("row_to_json(%s.*)", table)))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(mutate.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (p Provider) executeQuery(ctx context.Context, sqlQuery string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := p.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	p.logQueryWithDuration(ctx, sqlQuery, logActionUpdate, duration)

	if queryErr != nil {
		p.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, errors.Join(mutate.ErrUpdatingRecordsFailed, queryErr)
	}

	return rows, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (p Provider) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		p.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// processQueryResults decodes the returned JSON rows into records.
func (p Provider) processQueryResults(ctx context.Context, rows adapters.DBRows) ([]mutate.Record, error) {
	records := make([]mutate.Record, 0)

	for rows.Next() {
		var payload []byte

		if rowScanErr := rows.Scan(&payload); rowScanErr != nil {
			p.logError(ctx, logMsgScanRowFailed, rowScanErr)

			return nil, errors.Join(mutate.ErrScanningDBRowFailed, rowScanErr)
		}

		record := mutate.Record{}
		if decodeErr := jsoniter.ConfigFastest.Unmarshal(payload, &record); decodeErr != nil {
			p.logError(ctx, logMsgDecodeRecordFailed, decodeErr)

			return nil, errors.Join(mutate.ErrDecodingRecordFailed, decodeErr)
		}

		records = append(records, record)
	}

	return records, nil
}

// validateUpdateResult checks that every requested record was actually updated.
func (p Provider) validateUpdateResult(
	ctx context.Context,
	records []mutate.Record,
	distinctIDs []mutate.RecordID,
	resource mutate.ResourceName,
) error {

	if len(records) >= len(distinctIDs) {
		return nil
	}

	p.logOperation(ctx, logMsgRecordsMissing,
		logAttrResource, resource,
		logAttrRequestedCount, len(distinctIDs),
		logAttrRecordCount, len(records))

	return fmt.Errorf("%w: requested %d, updated %d",
		mutate.ErrRecordsNotFound, len(distinctIDs), len(records))
}

// distinct preserves the first occurrence order while dropping duplicates.
func distinct(ids []mutate.RecordID) []mutate.RecordID {
	seen := make(map[mutate.RecordID]struct{}, len(ids))
	result := make([]mutate.RecordID, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	return result
}

func (p Provider) startUpdateSpan(
	ctx context.Context,
	resource mutate.ResourceName,
	ids []mutate.RecordID,
) (context.Context, mutate.SpanContext) {

	if p.tracingCollector == nil {
		return ctx, nil
	}

	return p.tracingCollector.StartSpan(ctx, spanNameUpdate, map[string]string{
		logAttrResource:    resource,
		logAttrRecordCount: strconv.Itoa(len(ids)),
	})
}

func (p Provider) finishUpdateSpanSuccess(span mutate.SpanContext, recordCount int, duration time.Duration) {
	if p.tracingCollector == nil || span == nil {
		return
	}

	p.tracingCollector.FinishSpan(span, statusSuccess, map[string]string{
		logAttrRecordCount: strconv.Itoa(recordCount),
		logAttrDurationMS:  fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

func (p Provider) finishUpdateSpanError(span mutate.SpanContext, err error) {
	if p.tracingCollector == nil || span == nil {
		return
	}

	p.tracingCollector.FinishSpan(span, statusError, map[string]string{
		logAttrError: err.Error(),
	})
}
