package api

import "github.com/poiesic/ledgermatch/core"

// UserMatch is one user matched against a transaction.
type UserMatch struct {
	ID          string  `json:"id"`
	MatchMetric float64 `json:"match_metric"`
}

// MatchUsersResponse is the body of GET /match-users/:transaction_id.
type MatchUsersResponse struct {
	Users                []UserMatch `json:"users"`
	TotalNumberOfMatches int         `json:"total_number_of_matches"`
}

// TransactionMatch is one transaction whose description resembles the query.
type TransactionMatch struct {
	ID        string  `json:"id"`
	Embedding float64 `json:"embedding"`
}

// SearchResponse is the body of GET /search-similar-descriptions.
type SearchResponse struct {
	Transactions            []TransactionMatch `json:"transactions"`
	TotalNumberOfTokensUsed int                `json:"total_number_of_tokens_used"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type searchRequest struct {
	Query string `query:"query" validate:"required,min=1"`
}

// NewMatchUsersResponse converts a ranked result into the match-users body.
func NewMatchUsersResponse(result core.RankedResult) MatchUsersResponse {
	users := make([]UserMatch, len(result.Matches))
	for i, m := range result.Matches {
		users[i] = UserMatch{ID: m.CandidateID, MatchMetric: m.Score}
	}
	return MatchUsersResponse{Users: users, TotalNumberOfMatches: result.Count}
}

// NewSearchResponse converts a ranked result and token count into the search body.
func NewSearchResponse(result core.RankedResult, tokens int) SearchResponse {
	txns := make([]TransactionMatch, len(result.Matches))
	for i, m := range result.Matches {
		txns[i] = TransactionMatch{ID: m.CandidateID, Embedding: m.Score}
	}
	return SearchResponse{Transactions: txns, TotalNumberOfTokensUsed: tokens}
}
