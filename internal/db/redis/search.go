package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/lumina-search/lumina/internal/db"
)

const scoreField = "__vector_score"

// SearchKNN runs a KNN query via FT.SEARCH, nearest first.
// Entry scores are cosine similarity: 1 - distance.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, errors.New("vector is required")
	}
	if q.K <= 0 {
		return nil, errors.New("k must be positive")
	}

	args := []string{q.IndexName, buildKNNQuery(q)}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1))
		args = append(args, q.ReturnFields...)
		args = append(args, scoreField)
	}
	args = append(args,
		"SORTBY", scoreField, "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseKNNResult(raw)
}

// CountBy groups documents matching query by field and counts each group.
func (s *Store) CountBy(ctx context.Context, index, query, field string) (map[string]int64, error) {
	if query == "" {
		query = "*"
	}
	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(
		index, query,
		"GROUPBY", "1", "@"+field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"DIALECT", "2",
	).Build()

	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	return parseCountBy(raw, field)
}

func buildKNNQuery(q *db.KNNQuery) string {
	field := q.VectorField
	if field == "" {
		field = "vector"
	}
	filter := q.Filter
	if filter == "" {
		filter = "*"
	} else if filter != "*" {
		filter = "(" + filter + ")"
	}
	return fmt.Sprintf("%s=>[KNN %d @%s $BLOB AS %s]", filter, q.K, field, scoreField)
}

func parseKNNResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: parseFieldPairs(fields)}
		if str, ok := entry.Fields[scoreField]; ok {
			if d, err := strconv.ParseFloat(str, 64); err == nil {
				entry.Score = 1 - d
			}
			delete(entry.Fields, scoreField)
		}
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseCountBy reads [n, [field, value, count, c], ...] rows.
func parseCountBy(raw []rueidis.RedisMessage, field string) (map[string]int64, error) {
	out := make(map[string]int64)
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		pairs := parseFieldPairs(row)
		group, ok := pairs[field]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(pairs["count"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse count for %s: %w", group, err)
		}
		out[group] = n
	}
	return out, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
