// Package engine runs the full pipeline over a batch of parcels: frontage,
// sides, confrontations, aggregation, descriptions and the block stage.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"memorial/internal/aggregate"
	"memorial/internal/blocks"
	"memorial/internal/confront"
	"memorial/internal/frontage"
	"memorial/internal/geom"
	"memorial/internal/logger"
	"memorial/internal/memorial"
	"memorial/internal/metrics"
	"memorial/internal/sides"
	"memorial/internal/types"
)

// Input is everything a run reads. It is never modified.
type Input struct {
	Parcels []types.Parcel
	Streets []types.Feature
	Others  []types.Feature
	Blocks  []types.Block // optional outlines; missing ones are derived
}

// Output of a run, sorted for stable serialisation.
type Output struct {
	RunID    string
	Parcels  []types.ParcelResult // by block, sequence, id
	Blocks   []types.BlockResult  // by block id
	Failures []types.Failure      // by parcel id
}

// Engine is safe to reuse across runs.
type Engine struct {
	cfg Config
	doc memorial.Document
	log *slog.Logger
}

// New validates cfg. A nil log uses the process logger.
func New(cfg Config, doc memorial.Document, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if log == nil {
		log = logger.L()
	}
	return &Engine{cfg: cfg, doc: doc, log: log}, nil
}

// subject is a parcel that survived normalisation.
type subject struct {
	parcel types.Parcel
	shape  *geom.Shape
}

// Run resolves every parcel independently, then describes each block from
// its resolved members. Per-parcel failures are reported in the output;
// an error is returned only for cancellation or unusable reference data.
func (e *Engine) Run(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	out := &Output{RunID: uuid.NewString()}
	log := e.log.With("run", out.RunID)
	kit := geom.NewKit(e.cfg.QuadSegments)

	subjects, failures := e.prepare(log, kit, in.Parcels)
	e.number(subjects)

	fr, err := frontage.NewResolver(kit, in.Streets, e.cfg.frontage())
	if err != nil {
		return nil, fmt.Errorf("prepare streets: %w", err)
	}
	neighbors := make([]confront.Neighbor, len(subjects))
	for i, s := range subjects {
		neighbors[i] = confront.Neighbor{
			ID:       s.parcel.ID,
			BlockID:  s.parcel.BlockID,
			Label:    s.parcel.Label(),
			Boundary: s.shape.Boundary,
			Bound:    s.shape.Bound(),
		}
	}
	cr, err := confront.NewResolver(kit, neighbors, in.Streets, in.Others, e.cfg.confront())
	if err != nil {
		return nil, fmt.Errorf("prepare confrontations: %w", err)
	}

	results := make([]*types.ParcelResult, len(subjects))
	errs := make([]error, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workers(len(subjects)))
	for i := range subjects {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i], errs[i] = e.resolve(kit, fr, cr, subjects[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range subjects {
		if errs[i] != nil {
			failures = append(failures, e.fail(log, s.parcel, errs[i]))
			continue
		}
		r := results[i]
		out.Parcels = append(out.Parcels, *r)
		metrics.ParcelsTotal.WithLabelValues("ok").Inc()
		metrics.FrontageModeTotal.WithLabelValues(string(r.Frontage.Mode)).Inc()
		for _, edge := range r.Edges {
			if edge.Ambiguous {
				metrics.AmbiguousEdgesTotal.Inc()
				log.Debug("confrontation tie broken", "parcel", r.ParcelID, "edge", edge.Index, "name", edge.Confrontation)
			}
		}
	}

	seg, err := blocks.NewSegmenter(kit, in.Streets, e.cfg.blocks())
	if err != nil {
		return nil, fmt.Errorf("prepare block streets: %w", err)
	}
	out.Blocks = e.describeBlocks(log, kit, seg, in.Blocks, out.Parcels)

	sort.SliceStable(out.Parcels, func(i, j int) bool {
		a, b := out.Parcels[i], out.Parcels[j]
		if a.BlockID != b.BlockID {
			return a.BlockID < b.BlockID
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ParcelID < b.ParcelID
	})
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].ParcelID < failures[j].ParcelID })
	out.Failures = failures

	elapsed := time.Since(start)
	metrics.RunDurationSeconds.Observe(elapsed.Seconds())
	log.Info("run finished",
		"parcels", len(in.Parcels),
		"resolved", len(out.Parcels),
		"failed", len(out.Failures),
		"blocks", len(out.Blocks),
		"elapsed", elapsed.Round(time.Millisecond))
	return out, nil
}

func (e *Engine) prepare(log *slog.Logger, kit *geom.Kit, parcels []types.Parcel) ([]subject, []types.Failure) {
	var (
		subjects []subject
		failures []types.Failure
	)
	for _, p := range parcels {
		ring, err := geom.Normalize(p.Ring)
		if err != nil {
			failures = append(failures, e.fail(log, p, fmt.Errorf("parcel %s: %w", p.ID, err)))
			continue
		}
		shape, err := kit.Shape(ring)
		if err != nil {
			failures = append(failures, e.fail(log, p, fmt.Errorf("parcel %s: %w", p.ID, err)))
			continue
		}
		subjects = append(subjects, subject{parcel: p, shape: shape})
	}
	return subjects, failures
}

// number assigns sequence numbers by polar angle inside every block that
// has an unnumbered parcel, or inside every block when renumbering.
func (e *Engine) number(subjects []subject) {
	byBlock := make(map[string][]int)
	for i, s := range subjects {
		if s.parcel.BlockID != "" {
			byBlock[s.parcel.BlockID] = append(byBlock[s.parcel.BlockID], i)
		}
	}
	for _, idx := range byBlock {
		needed := e.cfg.Renumber
		members := make([]blocks.Member, len(idx))
		pos := make(map[string]int, len(idx))
		for k, i := range idx {
			p := subjects[i].parcel
			needed = needed || p.Seq <= 0
			members[k] = blocks.Member{ID: p.ID, Ring: subjects[i].shape.Ring}
			pos[p.ID] = i
		}
		if !needed {
			continue
		}
		for seq, id := range blocks.Number(members) {
			subjects[pos[id]].parcel.Seq = seq + 1
		}
	}
}

func (e *Engine) resolve(kit *geom.Kit, fr *frontage.Resolver, cr *confront.Resolver, s subject) (res *types.ParcelResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("parcel %s: panic: %v", s.parcel.ID, r)
		}
	}()

	p := s.parcel
	assigned := fr.Assign(s.shape)
	name := p.FrontageStreet
	if strings.TrimSpace(name) == "" {
		if name = assigned.Frontage; name == "" {
			return nil, fmt.Errorf("parcel %s: %w: no street touches the parcel", p.ID, types.ErrNoFrontageFound)
		}
	}
	if !fr.Has(name) {
		return nil, fmt.Errorf("parcel %s: %w: street %q is not in the street layer", p.ID, types.ErrNoFrontageFound, name)
	}
	front, err := fr.Resolve(s.shape, name)
	if err != nil {
		return nil, fmt.Errorf("parcel %s: %w", p.ID, err)
	}

	interior, err := kit.InteriorPoint(s.shape.Ring)
	if err != nil {
		return nil, fmt.Errorf("parcel %s: interior point: %w", p.ID, err)
	}
	labels := sides.Classify(s.shape.Edges, front.EdgeIndex, interior, e.cfg.BackDepthFraction)
	matches := cr.Resolve(p.ID, p.BlockID, s.shape)

	edges := make([]types.EdgeRecord, len(s.shape.Edges))
	for i, edge := range s.shape.Edges {
		edges[i] = types.EdgeRecord{
			Index:         i,
			Start:         edge.A,
			End:           edge.B,
			Length:        edge.Length,
			Bearing:       edge.Bearing,
			Side:          labels[i],
			Confrontation: matches[i].Name,
			Tier:          matches[i].Tier,
			Score:         matches[i].Score,
			Ambiguous:     matches[i].Ambiguous,
		}
	}

	r := &types.ParcelResult{
		ParcelID:  p.ID,
		BlockID:   p.BlockID,
		Seq:       p.Seq,
		Ring:      s.shape.Ring,
		Area:      geom.Area(s.shape.Ring),
		Perimeter: geom.Perimeter(s.shape.Ring),
		Frontage:  front,
		Streets:   assigned.Streets,
		Corner:    assigned.Corner,
		Edges:     edges,
		Sides:     frontSide(aggregate.Sides(edges, front.EdgeIndex), front.Street),
	}
	r.Description = memorial.Parcel(*r, e.doc)
	return r, nil
}

// frontSide names an unresolved front side after the frontage street. The
// frontage search reaches further than the confrontation buffer, and both
// must agree on what the parcel faces.
func frontSide(recs []types.SideRecord, street string) []types.SideRecord {
	for i := range recs {
		if recs[i].Side == types.SideFront && recs[i].Confrontation == types.Unidentified {
			recs[i].Confrontation = street
		}
	}
	return recs
}

func (e *Engine) fail(log *slog.Logger, p types.Parcel, err error) types.Failure {
	reason := types.ReasonCode(err)
	metrics.ParcelsTotal.WithLabelValues(strings.ToLower(reason)).Inc()
	log.Warn("parcel skipped", "parcel", p.ID, "block", p.BlockID, "reason", reason, "err", err)
	return types.Failure{ParcelID: p.ID, BlockID: p.BlockID, Reason: reason, Detail: err.Error()}
}

// describeBlocks runs after every parcel has been resolved. Failed parcels
// take no part in outlines or descriptions.
func (e *Engine) describeBlocks(log *slog.Logger, kit *geom.Kit, seg *blocks.Segmenter, given []types.Block, parcels []types.ParcelResult) []types.BlockResult {
	outlines := make(map[string]orb.Ring, len(given))
	for _, b := range given {
		if len(b.Outline) > 0 {
			outlines[b.ID] = b.Outline
		}
	}

	members := make(map[string][]types.ParcelResult)
	for _, p := range parcels {
		if p.BlockID != "" {
			members[p.BlockID] = append(members[p.BlockID], p)
		}
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []types.BlockResult
	for _, id := range ids {
		ms := members[id]
		sort.SliceStable(ms, func(i, j int) bool {
			if ms[i].Seq != ms[j].Seq {
				return ms[i].Seq < ms[j].Seq
			}
			return ms[i].ParcelID < ms[j].ParcelID
		})

		var (
			outline orb.Ring
			err     error
		)
		if o, ok := outlines[id]; ok {
			outline, err = blocks.Canonical(o)
		} else {
			rings := make([]orb.Ring, len(ms))
			for i, m := range ms {
				rings[i] = m.Ring
			}
			outline, err = blocks.Outline(kit, rings)
		}
		if err != nil {
			log.Warn("block skipped", "block", id, "err", err)
			continue
		}
		ring, segs, err := seg.Segments(outline)
		if err != nil {
			log.Warn("block skipped", "block", id, "err", err)
			continue
		}

		br := types.BlockResult{
			BlockID:   id,
			Outline:   ring,
			Area:      geom.Area(ring),
			Perimeter: geom.Perimeter(ring),
			Segments:  segs,
		}
		for _, m := range ms {
			br.Parcels = append(br.Parcels, m.ParcelID)
		}
		br.Description = memorial.Block(br, e.doc)
		metrics.BlocksTotal.Inc()
		out = append(out, br)
	}
	return out
}
