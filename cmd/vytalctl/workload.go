package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/SilentCathedral918/vytal-sub000/container/array"
	"github.com/SilentCathedral918/vytal-sub000/container/hashmap"
	"github.com/SilentCathedral918/vytal-sub000/internal/logger"
	"github.com/SilentCathedral918/vytal-sub000/memory"
)

const (
	workloadBlocks = "blocks"
	workloadArray  = "array"
	workloadMap    = "map"
)

// WorkloadResult summarizes one simulated run against a zone.
type WorkloadResult struct {
	Zone     string  `json:"zone"`
	Workload string  `json:"workload"`
	Ops      int     `json:"ops"`
	Success  int     `json:"success"`
	Failures int     `json:"failures"`
	Live     int     `json:"live"`
	Used     int     `json:"used"`
	HighMark int     `json:"high_water"`
	Util     float64 `json:"utilization"`
}

func (r *WorkloadResult) record(err error) {
	if err == nil {
		r.Success++
		return
	}
	r.Failures++
	logger.Debug("simulated operation failed", "zone", r.Zone, "workload", r.Workload, "err", err)
}

// runWorkload drives ops random operations of the given kind against z.
func runWorkload(z *memory.Zone, kind string, ops, maxSize int, rng *rand.Rand) (WorkloadResult, error) {
	res := WorkloadResult{Zone: z.Name(), Workload: kind, Ops: ops}

	var err error
	switch kind {
	case workloadBlocks:
		res.Live, err = blockWorkload(z, &res, ops, maxSize, rng)
	case workloadArray:
		res.Live, err = arrayWorkload(z, &res, ops, rng)
	case workloadMap:
		res.Live, err = mapWorkload(z, &res, ops, rng)
	default:
		return res, fmt.Errorf("unknown workload %q (want %s, %s or %s)", kind, workloadBlocks, workloadArray, workloadMap)
	}
	return res, err
}

// snapshot records the zone usage at the end of the run, before the workload releases
// what it still holds.
func (r *WorkloadResult) snapshot(z *memory.Zone) {
	st := z.Stats()
	r.Used, r.HighMark, r.Util = st.Used, st.HighWater, st.Utilization()
}

// containerUnavailable counts every operation as failed when the zone cannot even hold
// an empty container. Other errors abort the run.
func containerUnavailable(z *memory.Zone, res *WorkloadResult, ops int, err error) error {
	if !errors.Is(err, memory.ErrInsufficientMemory) {
		return err
	}
	res.snapshot(z)
	logger.Warn("zone too small for workload", "zone", res.Zone, "workload", res.Workload, "err", err)
	res.Failures += ops
	return nil
}

type simBlock struct {
	ref  memory.Ref
	size int
}

// blockWorkload allocates and frees raw blocks, two allocations for every free. Blocks
// still live at the end are released after the snapshot.
func blockWorkload(z *memory.Zone, res *WorkloadResult, ops, maxSize int, rng *rand.Rand) (int, error) {
	maxSize = min(maxSize, z.Capacity())
	var live []simBlock
	for range ops {
		if len(live) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(live))
			b := live[i]
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
			if err := z.Free(b.ref, b.size); err != nil {
				return 0, fmt.Errorf("free ref %d: %w", b.ref, err)
			}
			res.record(nil)
			continue
		}

		size := 1 + rng.Intn(maxSize)
		ref, _, err := z.Alloc(size)
		if err != nil && !errors.Is(err, memory.ErrInsufficientMemory) {
			return 0, err
		}
		res.record(err)
		if err == nil {
			live = append(live, simBlock{ref: ref, size: size})
		}
	}

	res.snapshot(z)
	for _, b := range live {
		if err := z.Free(b.ref, b.size); err != nil {
			return len(live), fmt.Errorf("release ref %d: %w", b.ref, err)
		}
	}
	return len(live), nil
}

// arrayWorkload grows one array with pushes, inserts and removals.
func arrayWorkload(z *memory.Zone, res *WorkloadResult, ops int, rng *rand.Rand) (int, error) {
	arr, err := array.New[int64](z)
	if err != nil {
		return 0, containerUnavailable(z, res, ops, err)
	}
	for range ops {
		v := rng.Int63n(1000)
		switch rng.Intn(4) {
		case 0:
			if arr.Len() == 0 {
				res.record(arr.Push(v))
				continue
			}
			res.record(arr.Insert(rng.Intn(arr.Len()+1), v))
		case 1:
			if arr.Empty() {
				res.record(arr.Push(v))
				continue
			}
			res.record(arr.RemoveAt(rng.Intn(arr.Len())))
		default:
			res.record(arr.Push(v))
		}
	}
	res.snapshot(z)
	n := arr.Len()
	if err := arr.Destroy(); err != nil {
		return n, fmt.Errorf("release array: %w", err)
	}
	return n, nil
}

// mapWorkload inserts, removes and looks up keys drawn from a bounded key space.
func mapWorkload(z *memory.Zone, res *WorkloadResult, ops int, rng *rand.Rand) (int, error) {
	m, err := hashmap.New[int64](z)
	if err != nil {
		return 0, containerUnavailable(z, res, ops, err)
	}
	keySpace := max(ops/2, 1)
	for range ops {
		key := fmt.Sprintf("entity-%d", rng.Intn(keySpace))
		switch rng.Intn(3) {
		case 0:
			if m.Contains(key) {
				res.record(m.Remove(key))
				continue
			}
			res.record(m.Insert(key, rng.Int63()))
		case 1:
			_, err := m.Search(key)
			if errors.Is(err, memory.ErrKeyNotFound) {
				err = nil
			}
			res.record(err)
		default:
			if m.Contains(key) {
				res.record(m.Update(key, rng.Int63()))
				continue
			}
			res.record(m.Insert(key, rng.Int63()))
		}
	}
	res.snapshot(z)
	n := m.Len()
	if err := m.Destroy(); err != nil {
		return n, fmt.Errorf("release map: %w", err)
	}
	return n, nil
}
