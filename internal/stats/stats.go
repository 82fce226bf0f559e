// Package stats aggregates per-node-name timing and success figures from a
// reconstructed task forest. Both aggregations are pure functions of the
// forest: running them twice yields identical output.
package stats

import (
	"sort"

	"github.com/crimson-sun/pipelens/internal/model"
)

// maxDurationMS bounds plausible single-node durations. Anything at or above
// one hour, or negative, is a clock artifact and is discarded.
const maxDurationMS = 3_600_000

// Aggregate computes per-node timing statistics. A node's duration is the gap
// to the next node's timestamp; the last node of an ended task runs to the
// task's end time, and the last node of a still-running task is skipped.
// Result is sorted by average duration, descending.
func Aggregate(tasks []*model.Task) []*model.NodeStat {
	acc := make(map[string]*model.NodeStat)
	var order []string

	for _, task := range tasks {
		endMS, hasEnd := int64(0), false
		if task.EndTime != "" {
			endMS, hasEnd = model.TimestampMS(task.EndTime)
		}
		for i, node := range task.Nodes {
			startMS, ok := model.TimestampMS(node.Timestamp)
			if !ok {
				continue
			}
			var dur int64
			switch {
			case i+1 < len(task.Nodes):
				next, ok := model.TimestampMS(task.Nodes[i+1].Timestamp)
				if !ok {
					continue
				}
				dur = next - startMS
			case hasEnd:
				dur = endMS - startMS
			default:
				continue
			}
			if dur < 0 || dur >= maxDurationMS {
				continue
			}

			s := acc[node.Name]
			if s == nil {
				s = &model.NodeStat{Name: node.Name, MinMS: dur, MaxMS: dur}
				acc[node.Name] = s
				order = append(order, node.Name)
			}
			s.Count++
			s.TotalMS += dur
			if dur < s.MinMS {
				s.MinMS = dur
			}
			if dur > s.MaxMS {
				s.MaxMS = dur
			}
			if node.Status == model.NodeSuccess {
				s.SuccessCount++
			} else {
				s.FailCount++
			}
		}
	}

	out := make([]*model.NodeStat, 0, len(order))
	for _, name := range order {
		s := acc[name]
		s.AvgMS = float64(s.TotalMS) / float64(s.Count)
		if denom := s.SuccessCount + s.FailCount; denom > 0 {
			s.SuccessRate = 100 * float64(s.SuccessCount) / float64(denom)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMS != out[j].AvgMS {
			return out[i].AvgMS > out[j].AvgMS
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// AggregatePhases splits each node's lifetime into a recognition phase (first
// to last attempt; needs at least two attempts) and an action phase (last
// attempt to node completion), pooled per node name. Only nodes with at least
// one recognition attempt participate. Result is sorted by average action
// duration, descending.
func AggregatePhases(tasks []*model.Task) []*model.PhaseStat {
	acc := make(map[string]*model.PhaseStat)
	var order []string

	for _, task := range tasks {
		for _, node := range task.Nodes {
			n := len(node.RecognitionAttempts)
			if n == 0 {
				continue
			}
			s := acc[node.Name]
			if s == nil {
				s = &model.PhaseStat{Name: node.Name}
				acc[node.Name] = s
				order = append(order, node.Name)
			}
			s.Count++
			s.TotalAttempts += n
			if node.Status == model.NodeSuccess {
				s.SuccessCount++
			} else {
				s.FailCount++
			}

			firstMS, ok1 := model.TimestampMS(node.RecognitionAttempts[0].Timestamp)
			lastMS, ok2 := model.TimestampMS(node.RecognitionAttempts[n-1].Timestamp)
			if n >= 2 && ok1 && ok2 {
				if dur := lastMS - firstMS; dur >= 0 && dur < maxDurationMS {
					addRecoSample(s, dur)
				}
			}
			nodeMS, ok3 := model.TimestampMS(node.Timestamp)
			if ok2 && ok3 {
				if dur := nodeMS - lastMS; dur >= 0 && dur < maxDurationMS {
					addActionSample(s, dur)
				}
			}
		}
	}

	out := make([]*model.PhaseStat, 0, len(order))
	for _, name := range order {
		s := acc[name]
		if s.RecoCount > 0 {
			s.RecoAvgMS = float64(s.RecoTotalMS) / float64(s.RecoCount)
		}
		if s.ActionCount > 0 {
			s.ActionAvgMS = float64(s.ActionTotalMS) / float64(s.ActionCount)
		}
		s.AvgAttempts = float64(s.TotalAttempts) / float64(s.Count)
		if denom := s.SuccessCount + s.FailCount; denom > 0 {
			s.SuccessRate = 100 * float64(s.SuccessCount) / float64(denom)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActionAvgMS != out[j].ActionAvgMS {
			return out[i].ActionAvgMS > out[j].ActionAvgMS
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func addRecoSample(s *model.PhaseStat, dur int64) {
	if s.RecoCount == 0 || dur < s.RecoMinMS {
		s.RecoMinMS = dur
	}
	if dur > s.RecoMaxMS {
		s.RecoMaxMS = dur
	}
	s.RecoCount++
	s.RecoTotalMS += dur
}

func addActionSample(s *model.PhaseStat, dur int64) {
	if s.ActionCount == 0 || dur < s.ActionMinMS {
		s.ActionMinMS = dur
	}
	if dur > s.ActionMaxMS {
		s.ActionMaxMS = dur
	}
	s.ActionCount++
	s.ActionTotalMS += dur
}

// TopSlowest returns the n names with the highest average duration.
func TopSlowest(rows []*model.NodeStat, n int) []*model.NodeStat {
	// Aggregate already sorts by average duration.
	return head(rows, n)
}

// TopFrequent returns the n most frequently executed names.
func TopFrequent(rows []*model.NodeStat, n int) []*model.NodeStat {
	sorted := append([]*model.NodeStat(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})
	return head(sorted, n)
}

// TopFailed returns the n names with the highest fail ratio, considering only
// names with at least one failure.
func TopFailed(rows []*model.NodeStat, n int) []*model.NodeStat {
	var failed []*model.NodeStat
	for _, s := range rows {
		if s.FailCount > 0 {
			failed = append(failed, s)
		}
	}
	sort.Slice(failed, func(i, j int) bool {
		ri := float64(failed[i].FailCount) / float64(failed[i].Count)
		rj := float64(failed[j].FailCount) / float64(failed[j].Count)
		if ri != rj {
			return ri > rj
		}
		return failed[i].Name < failed[j].Name
	})
	return head(failed, n)
}

func head(rows []*model.NodeStat, n int) []*model.NodeStat {
	if n < 0 || n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}
