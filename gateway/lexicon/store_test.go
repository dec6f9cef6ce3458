// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package lexicon

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The three sub-queries run concurrently, so expectations must not
// assume an order.
func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)
	return NewStore(db, PolicyDegrade), mock
}

func expectLexiconQueries(mock sqlmock.Sqlmock, language string, hooks, words, ctas []string) {
	hookRows := sqlmock.NewRows([]string{"hook"})
	for _, h := range hooks {
		hookRows.AddRow(h)
	}
	wordRows := sqlmock.NewRows([]string{"word"})
	for _, w := range words {
		wordRows.AddRow(w)
	}
	ctaRows := sqlmock.NewRows([]string{"cta"})
	for _, c := range ctas {
		ctaRows.AddRow(c)
	}

	mock.ExpectQuery(hooksQuery).WithArgs(language).WillReturnRows(hookRows)
	mock.ExpectQuery(avoidWordsQuery).WithArgs(language).WillReturnRows(wordRows)
	mock.ExpectQuery(ctasQuery).WithArgs(language).WillReturnRows(ctaRows)
}

func TestFetch_AllCollections(t *testing.T) {
	store, mock := newMock(t)
	expectLexiconQueries(mock, "DE",
		[]string{"Wusstest du schon?", "Stell dir vor:"},
		[]string{"Synergie"},
		[]string{"Folge uns", "Jetzt lesen"},
	)

	lex, err := store.Fetch(context.Background(), "DE")

	require.NoError(t, err)
	assert.Equal(t, []string{"Wusstest du schon?", "Stell dir vor:"}, lex.Hooks)
	assert.Equal(t, []string{"Synergie"}, lex.AvoidWords)
	assert.Equal(t, []string{"Folge uns", "Jetzt lesen"}, lex.CTAs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetch_ZeroRowsIsEmptyNotError(t *testing.T) {
	store, mock := newMock(t)
	expectLexiconQueries(mock, "XX", nil, nil, nil)

	lex, err := store.Fetch(context.Background(), "XX")

	require.NoError(t, err)
	assert.NotNil(t, lex.Hooks)
	assert.NotNil(t, lex.AvoidWords)
	assert.NotNil(t, lex.CTAs)
	assert.Empty(t, lex.Hooks)
	assert.Empty(t, lex.AvoidWords)
	assert.Empty(t, lex.CTAs)
}

func TestFetch_Idempotent(t *testing.T) {
	store, mock := newMock(t)
	expectLexiconQueries(mock, "EN", []string{"Did you know?"}, []string{"leverage"}, []string{"Read more"})
	expectLexiconQueries(mock, "EN", []string{"Did you know?"}, []string{"leverage"}, []string{"Read more"})

	first, err := store.Fetch(context.Background(), "EN")
	require.NoError(t, err)
	second, err := store.Fetch(context.Background(), "EN")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFetch_QueryErrorPropagates(t *testing.T) {
	store, mock := newMock(t)
	queryErr := errors.New("connection refused")
	mock.ExpectQuery(hooksQuery).WithArgs("DE").WillReturnError(queryErr)
	mock.ExpectQuery(avoidWordsQuery).WithArgs("DE").WillReturnRows(sqlmock.NewRows([]string{"word"}))
	mock.ExpectQuery(ctasQuery).WithArgs("DE").WillReturnRows(sqlmock.NewRows([]string{"cta"}))

	lex, err := store.Fetch(context.Background(), "DE")

	require.Error(t, err)
	assert.Nil(t, lex)
	assert.ErrorIs(t, err, queryErr)
}

func TestFetch_PolicyFailOnUnprovisionedLanguage(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)
	store := NewStore(db, PolicyFail)

	expectLexiconQueries(mock, "ZZ", nil, nil, nil)

	lex, err := store.Fetch(context.Background(), "ZZ")

	require.Error(t, err)
	assert.Nil(t, lex)
	var notProvisioned *ErrLanguageNotProvisioned
	require.ErrorAs(t, err, &notProvisioned)
	assert.Equal(t, "ZZ", notProvisioned.Language)
}

func TestNewStore_DefaultPolicy(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db, "")
	assert.Equal(t, PolicyDegrade, store.policy)
}
