package postgres

// SQL for the device-local sample store and its authorization state.

const (
	// querySamplesAscending serves unbounded range queries. The start bound
	// is strict: start_ts >= $2 AND start_ts < $3.
	querySamplesAscending = `
		SELECT quantity, category_code, unit, start_ts, end_ts, source_name, user_entered
		FROM samples
		WHERE sample_type = $1
		  AND start_ts >= $2
		  AND start_ts < $3
		ORDER BY end_ts ASC
	`

	// querySamplesDescendingLimited serves limited queries: the most recent
	// N samples by end time. The caller re-sorts the subset ascending.
	querySamplesDescendingLimited = `
		SELECT quantity, category_code, unit, start_ts, end_ts, source_name, user_entered
		FROM samples
		WHERE sample_type = $1
		  AND start_ts >= $2
		  AND start_ts < $3
		ORDER BY end_ts DESC
		LIMIT $4
	`

	// queryDailyRows feeds the windowed aggregate: quantity rows in range,
	// with the manual-entry exclusion applied as part of the predicate
	// rather than as post-filtering.
	queryDailyRows = `
		SELECT quantity, unit, start_ts
		FROM samples
		WHERE sample_type = $1
		  AND start_ts >= $2
		  AND start_ts < $3
		  AND quantity IS NOT NULL
		  AND ($4::boolean = FALSE OR user_entered = FALSE)
		ORDER BY start_ts ASC
	`

	// queryAuthorizationStatus reads the consent state for one sample type.
	// No row means the consent prompt has never been shown.
	queryAuthorizationStatus = `
		SELECT status
		FROM authorizations
		WHERE sample_type = $1
	`

	// queryCountUndetermined counts sample types that still have no
	// recorded response among the given set.
	queryCountUndetermined = `
		SELECT COUNT(*)
		FROM unnest($1::text[]) AS t(sample_type)
		WHERE NOT EXISTS (
			SELECT 1 FROM authorizations a
			WHERE a.sample_type = t.sample_type AND a.status <> 0
		)
	`

	// queryRecordAuthorization records a completed consent response for one
	// sample type. DO NOTHING preserves an earlier response; the stored
	// status is intentionally not exposed as a per-type grant.
	queryRecordAuthorization = `
		INSERT INTO authorizations (sample_type, status)
		VALUES ($1, $2)
		ON CONFLICT (sample_type) DO NOTHING
	`
)
