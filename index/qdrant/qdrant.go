/*
 * Copyright 2025 Poiesic, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package qdrant implements index.Index against a Qdrant server over
// gRPC. The collection is created on first use when absent.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/poiesic/medassist/index"
)

// Config holds the connection and collection settings for a Qdrant
// index.
type Config struct {
	Host       string
	Port       int
	Collection string
	VectorSize uint64
}

// DefaultConfig returns settings for a local Qdrant server.
func DefaultConfig() Config {
	return Config{
		Host:       "localhost",
		Port:       6334,
		Collection: "medline",
		VectorSize: 384,
	}
}

// Validate checks the configuration, naming the first problem found.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("vector size must be positive")
	}
	return nil
}

// Index is a Qdrant-backed vector index.
type Index struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	config      Config
	logger      *slog.Logger
}

// New connects to Qdrant and ensures the configured collection exists.
func New(ctx context.Context, config Config) (*Index, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid qdrant config: %w", err)
	}
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	idx := &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		config:      config,
		logger:      slog.Default().With("component", "qdrant"),
	}
	if err := idx.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return idx, nil
}

func (q *Index) ensureCollection(ctx context.Context) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, desc := range list.Collections {
		if desc.Name == q.config.Collection {
			return nil
		}
	}
	q.logger.Info("creating collection",
		"collection", q.config.Collection,
		"vectorSize", q.config.VectorSize)
	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.config.Collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     q.config.VectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", q.config.Collection, err)
	}
	return nil
}

func (q *Index) Upsert(ctx context.Context, records []index.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*pb.PointStruct, len(records))
	for i, rec := range records {
		id, err := pointID(rec.ID)
		if err != nil {
			return err
		}
		payload := map[string]*pb.Value{
			"text": {Kind: &pb.Value_StringValue{StringValue: rec.Text}},
		}
		for k, v := range rec.Metadata {
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
		}
		points[i] = &pb.PointStruct{
			Id:      id,
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: rec.Vector}}},
			Payload: payload,
		}
	}
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.config.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return nil
}

func (q *Index) Query(ctx context.Context, vector []float32, topK int) ([]index.Match, error) {
	if topK <= 0 {
		return nil, index.ErrInvalidTopK
	}
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.config.Collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", q.config.Collection, err)
	}
	matches := make([]index.Match, len(resp.Result))
	for i, pt := range resp.Result {
		matches[i] = index.Match{
			ID:       pointIDString(pt.Id),
			Score:    pt.Score,
			Metadata: payloadToMetadata(pt.Payload),
		}
	}
	return matches, nil
}

// Scroll enumerates stored points in ID order. Pass an empty offset to
// start from the beginning; an empty next offset marks the end.
func (q *Index) Scroll(ctx context.Context, offset string, limit int) ([]index.Record, string, error) {
	req := &pb.ScrollPoints{
		CollectionName: q.config.Collection,
		Limit:          ptr(uint32(limit)),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if offset != "" {
		id, err := pointID(offset)
		if err != nil {
			return nil, "", err
		}
		req.Offset = id
	}
	resp, err := q.points.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("scrolling collection %s: %w", q.config.Collection, err)
	}
	records := make([]index.Record, len(resp.Result))
	for i, pt := range resp.Result {
		meta := payloadToMetadata(pt.Payload)
		records[i] = index.Record{
			ID:       pointIDString(pt.Id),
			Text:     meta["text"],
			Metadata: meta,
		}
	}
	next := ""
	if resp.NextPageOffset != nil {
		next = pointIDString(resp.NextPageOffset)
	}
	return records, next, nil
}

// Count reports the number of points in the collection.
func (q *Index) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := q.points.Count(ctx, &pb.CountPoints{
		CollectionName: q.config.Collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting collection %s: %w", q.config.Collection, err)
	}
	return resp.Result.Count, nil
}

func (q *Index) Close() error {
	return q.conn.Close()
}

// pointID maps a record ID string to a Qdrant point ID. Decimal
// strings become numeric IDs, UUID strings become UUID IDs.
func pointID(id string) (*pb.PointId, error) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: n}}, nil
	}
	if _, err := uuid.Parse(id); err == nil {
		return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}, nil
	}
	return nil, fmt.Errorf("%w: %q", index.ErrInvalidRecordID, id)
}

func pointIDString(id *pb.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func payloadToMetadata(payload map[string]*pb.Value) map[string]string {
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		meta[k] = v.GetStringValue()
	}
	return meta
}

func ptr[T any](v T) *T {
	return &v
}

var (
	_ index.Index    = (*Index)(nil)
	_ index.Scroller = (*Index)(nil)
	_ index.Counter  = (*Index)(nil)
)
