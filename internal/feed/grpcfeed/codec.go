package grpcfeed

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"chatsync/internal/common"
)

// Frames on the wire are google.protobuf.Struct values. Numbers come back as
// float64, which common.DecodeMessage accepts for integral ids.

func encodeFilter(f common.TopicFilter) (*structpb.Struct, error) {
	ops := make([]any, 0, len(f.Operations))
	for _, op := range f.Operations {
		ops = append(ops, string(op))
	}
	return structpb.NewStruct(map[string]any{
		"table":      string(f.Table),
		"operations": ops,
		"column":     f.Column,
		"value":      f.Value,
	})
}

func decodeFilter(s *structpb.Struct) (common.TopicFilter, error) {
	var f common.TopicFilter
	m := s.AsMap()

	table, _ := m["table"].(string)
	switch common.Table(table) {
	case common.TableMessages, common.TableFriendships:
		f.Table = common.Table(table)
	default:
		return f, fmt.Errorf("unknown table %q", table)
	}

	if raw, ok := m["operations"].([]any); ok {
		for _, v := range raw {
			op, _ := v.(string)
			switch common.Operation(op) {
			case common.OpInsert, common.OpUpdate, common.OpDelete:
				f.Operations = append(f.Operations, common.Operation(op))
			default:
				return f, fmt.Errorf("unknown operation %q", op)
			}
		}
	}
	f.Column, _ = m["column"].(string)
	f.Value, _ = m["value"].(string)
	return f, nil
}

func encodeEvent(ev common.ChangeEvent) (*structpb.Struct, error) {
	record := make(map[string]any, len(ev.Record))
	for k, v := range ev.Record {
		record[k] = v
	}
	s, err := structpb.NewStruct(map[string]any{
		"table":       string(ev.Table),
		"operation":   string(ev.Operation),
		"record":      record,
		"commit_time": ev.CommitTime.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Table, err)
	}
	return s, nil
}

func decodeEvent(s *structpb.Struct) (common.ChangeEvent, error) {
	var ev common.ChangeEvent
	m := s.AsMap()

	table, _ := m["table"].(string)
	op, _ := m["operation"].(string)
	ev.Table = common.Table(table)
	ev.Operation = common.Operation(op)
	if ev.Table == "" || ev.Operation == "" {
		return ev, fmt.Errorf("%w: event without table or operation", common.ErrMalformedRecord)
	}

	record, ok := m["record"].(map[string]any)
	if !ok {
		return ev, fmt.Errorf("%w: event without record", common.ErrMalformedRecord)
	}
	ev.Record = record

	if ts, _ := m["commit_time"].(string); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return ev, fmt.Errorf("%w: commit_time: %v", common.ErrMalformedRecord, err)
		}
		ev.CommitTime = t
	}
	return ev, nil
}

// validateEvent rejects events whose record does not decode for its table.
func validateEvent(ev common.ChangeEvent) error {
	switch ev.Table {
	case common.TableMessages:
		_, err := common.DecodeMessage(ev.Record)
		return err
	case common.TableFriendships:
		_, err := common.DecodeEdge(ev.Record)
		return err
	default:
		return fmt.Errorf("%w: unknown table %q", common.ErrMalformedRecord, ev.Table)
	}
}

func ackFrame(id common.SubscriptionID) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"ready":           structpb.NewBoolValue(true),
		"subscription_id": structpb.NewStringValue(string(id)),
	}}
}

func isAck(s *structpb.Struct) bool {
	v, ok := s.GetFields()["ready"]
	return ok && v.GetBoolValue()
}
