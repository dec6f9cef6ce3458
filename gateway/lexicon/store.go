// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Lexicon is the language-scoped phrase collections used as crew inputs:
// opening hooks, words to avoid, and call-to-action phrases.
type Lexicon struct {
	Hooks      []string `json:"hooks"`
	AvoidWords []string `json:"avoid_words"`
	CTAs       []string `json:"ctas"`
}

// MissingPolicy controls what Fetch does when a language has zero
// provisioned rows in all three tables.
type MissingPolicy string

const (
	// PolicyDegrade returns empty lists for an unprovisioned language.
	PolicyDegrade MissingPolicy = "degrade"

	// PolicyFail returns ErrLanguageNotProvisioned instead.
	PolicyFail MissingPolicy = "fail"
)

// ErrLanguageNotProvisioned is returned under PolicyFail when no rows
// exist for the requested language. Distinct from a connectivity failure.
type ErrLanguageNotProvisioned struct {
	Language string
}

func (e *ErrLanguageNotProvisioned) Error() string {
	return fmt.Sprintf("no lexicon rows provisioned for language %q", e.Language)
}

// Only rows marked with the admin access scope are served to callers.
const (
	hooksQuery      = `SELECT hook FROM hooks WHERE language = $1 AND rights = 'admin'`
	avoidWordsQuery = `SELECT word FROM avoid_words WHERE language = $1 AND rights = 'admin'`
	ctasQuery       = `SELECT cta FROM ctas WHERE language = $1 AND rights = 'admin'`
)

// Store fetches lexicon data from the lookup store. The *sql.DB handle is
// shared process-wide and safe for concurrent use; Store holds no other
// state, so one instance serves all requests. No caching: every Fetch
// hits the store, trading latency for staleness-freedom.
type Store struct {
	db     *sql.DB
	policy MissingPolicy
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB, policy MissingPolicy) *Store {
	if policy == "" {
		policy = PolicyDegrade
	}
	return &Store{db: db, policy: policy}
}

// Open connects to the lookup store and verifies connectivity.
func Open(ctx context.Context, connectionURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup store connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping lookup store: %w", err)
	}

	return db, nil
}

// Fetch returns the lexicon for one language. The three sub-queries are
// independent and run concurrently; all must complete (or one fail)
// before Fetch returns. Zero rows in a table is a valid empty list, not
// an error — only connectivity or query failures propagate, except under
// PolicyFail when the language has no rows at all.
func (s *Store) Fetch(ctx context.Context, language string) (*Lexicon, error) {
	lex := &Lexicon{
		Hooks:      []string{},
		AvoidWords: []string{},
		CTAs:       []string{},
	}

	queries := []struct {
		query string
		dest  *[]string
	}{
		{hooksQuery, &lex.Hooks},
		{avoidWordsQuery, &lex.AvoidWords},
		{ctasQuery, &lex.CTAs},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(queries))
	for i, q := range queries {
		wg.Add(1)
		go func(i int, query string, dest *[]string) {
			defer wg.Done()
			values, err := s.queryColumn(ctx, query, language)
			if err != nil {
				errs[i] = err
				return
			}
			*dest = values
		}(i, q.query, q.dest)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	if s.policy == PolicyFail && len(lex.Hooks) == 0 && len(lex.AvoidWords) == 0 && len(lex.CTAs) == 0 {
		return nil, &ErrLanguageNotProvisioned{Language: language}
	}

	return lex, nil
}

// queryColumn runs a single-column query and collects the values in row
// order.
func (s *Store) queryColumn(ctx context.Context, query, language string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, language)
	if err != nil {
		return nil, fmt.Errorf("lexicon query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("lexicon row scan failed: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexicon row iteration failed: %w", err)
	}

	return values, nil
}

// HealthCheck verifies the lookup store is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
