package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/milk9111/footsim/character"
	"github.com/milk9111/footsim/levels"
	"github.com/milk9111/footsim/logger"
	"github.com/milk9111/footsim/netsync"
	"github.com/milk9111/footsim/physics"
	"github.com/milk9111/footsim/prefabs"
	"github.com/milk9111/footsim/world"
	"go.uber.org/zap"
)

type options struct {
	level    string
	spawn    string
	steps    int
	input    string
	mobs     bool
	seed     uint64
	every    int
	records  string
	watch    bool
	logLevel string
	logFile  string
	dev      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.level, "level", "sample", "embedded level name, or a .json/.tmx file")
	flag.StringVar(&opts.spawn, "spawn", "", "spawn point of the player (first one when empty)")
	flag.IntVar(&opts.steps, "steps", 600, "fixed steps to simulate; 0 runs until interrupted")
	flag.StringVar(&opts.input, "input", "", "player input, e.g. right:90,jump+right:1,none:60")
	flag.BoolVar(&opts.mobs, "mobs", true, "spawn the level's mobs")
	flag.Uint64Var(&opts.seed, "seed", 1, "mob behavior seed")
	flag.IntVar(&opts.every, "every", 60, "log character state every n steps; 0 disables")
	flag.StringVar(&opts.records, "records", "", "write msgpack move records to this file")
	flag.BoolVar(&opts.watch, "watch", false, "run in real time and restart when prefabs change")
	flag.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flag.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this rotated file")
	flag.BoolVar(&opts.dev, "dev", false, "panic on simulation faults")
	flag.Parse()

	if err := logger.Init(opts.logLevel, opts.logFile, opts.dev); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		logger.Log.Error("footsim failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	input, err := parseScript(opts.input)
	if err != nil {
		return err
	}

	var out *recordWriter
	if opts.records != "" {
		out, err = newRecordWriter(opts.records)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	var changes <-chan prefabs.Change
	if opts.watch {
		watcher, err := prefabs.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch prefabs: %w", err)
		}
		defer watcher.Close()
		changes = watcher.Events
	}

	for {
		sim, err := newSimulation(opts, input)
		if err != nil {
			return err
		}
		restart, err := sim.run(ctx, out, changes)
		if err != nil || !restart {
			return err
		}
		logger.Log.Info("prefabs changed, restarting")
	}
}

type simulation struct {
	opts   options
	input  script
	world  *world.World
	player *character.Controller
	log    *zap.Logger
}

func newSimulation(opts options, input script) (*simulation, error) {
	pctx, err := loadContext()
	if err != nil {
		return nil, err
	}
	lvl, err := loadLevel(opts.level)
	if err != nil {
		return nil, err
	}

	w := world.New(pctx, logger.Log)
	w.SetSeed(opts.seed)
	if err := w.LoadLevel(lvl); err != nil {
		return nil, err
	}
	p, err := w.SpawnPlayer(opts.spawn)
	if err != nil {
		return nil, err
	}
	if opts.mobs {
		if _, err := w.SpawnMobs(); err != nil {
			return nil, err
		}
	}
	return &simulation{
		opts:   opts,
		input:  input,
		world:  w,
		player: p,
		log:    logger.Log.Named("sim"),
	}, nil
}

// run steps the world until the step budget is spent or ctx ends. It
// reports true when a prefab change asks for a restart.
func (s *simulation) run(ctx context.Context, out *recordWriter, changes <-chan prefabs.Change) (bool, error) {
	tracker := netsync.NewTracker(0.5)
	var tick <-chan time.Time
	if s.opts.watch {
		ticker := time.NewTicker(time.Duration(s.world.Context().FixedStep * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for frame := 0; s.opts.steps == 0 || frame < s.opts.steps; frame++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return false, nil
			case c, ok := <-changes:
				if !ok {
					changes = nil
					frame--
					continue
				}
				s.log.Info("prefab changed", zap.String("path", c.Path), zap.Bool("script", c.Script))
				return true, nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return false, nil
		}

		s.player.SetKeys(s.input.At(frame))
		s.world.Step()

		if out != nil {
			if err := out.Write(s.world.Records(tracker)); err != nil {
				return false, err
			}
		}
		if s.opts.every > 0 && (frame+1)%s.opts.every == 0 {
			s.report()
		}
	}
	s.report()
	return false, nil
}

func (s *simulation) report() {
	for _, snap := range s.world.Snapshots() {
		st := snap.Snapshot.State
		s.log.Info("state",
			zap.Uint64("frame", s.world.Frame()),
			zap.Stringer("entity", snap.Entity),
			zap.Stringer("kind", snap.Kind),
			zap.Float64("x", snap.Snapshot.Position.X),
			zap.Float64("y", snap.Snapshot.Position.Y),
			zap.Int("foothold", snap.Snapshot.Foothold),
			zap.Stringer("phase", st.Phase()),
		)
	}
	if n := s.world.Faults(); n > 0 {
		s.log.Warn("simulation faults", zap.Int("count", n))
	}
}

func loadContext() (*physics.Context, error) {
	spec, err := prefabs.LoadWorldSpec()
	if err != nil {
		return nil, err
	}
	return physics.NewContext(*spec)
}

func loadLevel(name string) (*levels.Level, error) {
	switch filepath.Ext(name) {
	case ".json", ".tmx":
		return levels.Load(name)
	}
	return levels.LoadEmbedded(name)
}

// recordWriter appends length-prefixed msgpack batches, one per step with
// changes.
type recordWriter struct {
	f *os.File
	w *bufio.Writer
}

func newRecordWriter(path string) (*recordWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &recordWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (r *recordWriter) Write(recs []netsync.MoveRecord) error {
	if len(recs) == 0 {
		return nil
	}
	b, err := netsync.EncodeBatch(recs)
	if err != nil {
		return err
	}
	var size [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(size[:], uint64(len(b)))
	if _, err := r.w.Write(size[:n]); err != nil {
		return err
	}
	_, err = r.w.Write(b)
	return err
}

func (r *recordWriter) Close() error {
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		return err
	}
	return r.f.Close()
}
