package retrieval

import (
	"strconv"

	"github.com/tiagoalmeida/spimisearch/pkg/collection"
	"github.com/tiagoalmeida/spimisearch/pkg/tokenize"
)

// QueryResult is one question's ranked list plus its evaluation metrics,
// when the question carries a non-empty relevance judgement. Evaluation is
// per query; there is no macro-averaging here.
type QueryResult struct {
	QueryID string
	Ranked  []ScoredDoc
	Metrics *EvalMetrics
}

// RunQueries runs Search for every question and evaluates against its
// judgement list, when present.
func RunQueries(loader *Loader, tok *tokenize.Tokenizer, questions []collection.Question, topK int) ([]QueryResult, error) {
	results := make([]QueryResult, 0, len(questions))

	for _, q := range questions {
		ranked, err := Search(loader, tok, q.QueryText, topK)
		if err != nil {
			return nil, err
		}

		qr := QueryResult{QueryID: q.QueryID, Ranked: ranked}

		if len(q.DocumentsPMID) > 0 {
			relevant := make(map[int64]struct{}, len(q.DocumentsPMID))
			for _, id := range q.DocumentsPMID {
				if n, err := strconv.ParseInt(id, 10, 64); err == nil {
					relevant[n] = struct{}{}
				}
			}
			rankedIDs := make([]int64, len(ranked))
			for i, r := range ranked {
				rankedIDs[i] = r.DocID
			}
			m := Evaluate(rankedIDs, relevant, len(rankedIDs))
			qr.Metrics = &m
		}

		results = append(results, qr)
	}

	return results, nil
}
