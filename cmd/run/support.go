package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/zintix-labs/pairlab"
	"github.com/zintix-labs/pairlab/catalog"
	"github.com/zintix-labs/pairlab/corefmt"
	"github.com/zintix-labs/pairlab/demo"
	"github.com/zintix-labs/pairlab/dto"
	"github.com/zintix-labs/pairlab/errs"
	"github.com/zintix-labs/pairlab/match"
	"github.com/zintix-labs/pairlab/roster"
	"github.com/zintix-labs/pairlab/score"
	"github.com/zintix-labs/pairlab/sdk/core"
	"github.com/zintix-labs/pairlab/sdk/perf"
	"github.com/zintix-labs/pairlab/server/logger"
	"github.com/zintix-labs/pairlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	green = "\033[1;32m"
	reset = "\033[0m"
)

var printer = message.NewPrinter(language.English)

// profiled 依全域 --pprof 包住一次指令執行
func profiled(c *cli.Context, exe func() error) error {
	return perf.RunPProf(exe, c.String("pprof"), c.String("pprof-dir"))
}

// newLogger log 一律寫到 App.ErrWriter，stdout 只留給報表。
func newLogger(c *cli.Context) (*slog.Logger, error) {
	mode, err := logger.ParseMode(c.String("log-mode"))
	if err != nil {
		return nil, err
	}
	return logger.NewLoggerTo(c.App.ErrWriter, mode), nil
}

// loadLab --roster 可以是單一名冊檔、名冊目錄，或省略（內建示範名冊）。
func loadLab(c *cli.Context) (*pairlab.Lab, error) {
	log, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	path := c.String("roster")
	if path == "" {
		return demo.NewLab(pairlab.WithLogger(log))
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, errs.WrapWarn(err, "roster path")
	}
	if st.IsDir() {
		return pairlab.NewAuto(core.Default(), pairlab.Rosters(os.DirFS(path)), pairlab.WithLogger(log))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapWarn(err, "read roster file")
	}
	name := filepath.Base(path)
	r, err := catalog.ParseByExt(name, raw)
	if err != nil {
		return nil, err
	}
	lab, err := pairlab.New(core.Default(), pairlab.Rosters(os.DirFS(filepath.Dir(path))), pairlab.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := lab.Register(catalog.Entry{RID: r.ID, Name: r.Name, FileName: name}); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func seedOf(c *cli.Context) int64 {
	if s := c.Int64("seed"); s != 0 {
		return s
	}
	return core.NewSeed()
}

func optionsOf(c *cli.Context, def match.FilterMode) (match.Options, error) {
	opts := match.Options{Filter: def, MaxRounds: c.Int("max-rounds")}
	if opts.MaxRounds < 0 {
		return opts, errs.Coded(errs.InvalidParam, "max-rounds must not be negative, got %d", opts.MaxRounds)
	}
	if s := c.String("filter"); s != "" {
		f, err := match.ParseFilter(s)
		if err != nil {
			return opts, err
		}
		opts.Filter = f
	}
	return opts, nil
}

// ------------------------------------------------------------
// rosters
// ------------------------------------------------------------

func doRosters(c *cli.Context) error {
	lab, err := loadLab(c)
	if err != nil {
		return err
	}
	sum, err := lab.Summary()
	if err != nil {
		return err
	}
	w := c.App.Writer
	switch format := c.String("format"); format {
	case "text":
		keys := make([]string, 0, len(sum))
		msg := make(map[string]string, len(sum))
		for _, s := range sum {
			k := fmt.Sprintf("#%d %s", s.RID, s.Name)
			keys = append(keys, k)
			msg[k] = printer.Sprintf("%d members, filter %s", s.Members, s.Filter)
		}
		_, err = fmt.Fprint(w, stats.Table("Rosters", keys, msg))
		return err
	default:
		return writeAs(w, format, &sum)
	}
}

// ------------------------------------------------------------
// match
// ------------------------------------------------------------

func doMatch(c *cli.Context) error {
	lab, err := loadLab(c)
	if err != nil {
		return err
	}
	seed := seedOf(c)

	var m *pairlab.Matcher
	if path := c.String("matrix"); path != "" {
		if m, err = matrixMatcher(lab, path, c.StringSlice("genders"), c.StringSlice("prefs"), seed); err != nil {
			return err
		}
	} else if m, err = lab.NewMatcherWithSeed(roster.RID(c.Uint("rid")), seed); err != nil {
		return err
	}
	opts, err := optionsOf(c, m.Population().Filter)
	if err != nil {
		return err
	}

	var start []byte
	if in := c.String("state-in"); in != "" {
		if start, err = readState(in); err != nil {
			return err
		}
	}
	res, err := m.MatchWith(opts, start)
	if err != nil {
		return err
	}
	if out := c.String("state-out"); out != "" {
		if err := writeState(out, res.State.StartCoreSnapB64U); err != nil {
			return err
		}
	}

	w := c.App.Writer
	switch format := c.String("format"); format {
	case "text":
		printer.Fprintf(w, "%s[ROSTER:%s] [SEED:%d] [FILTER:%s]%s\n", green, res.Roster, seed, res.Filter, reset)
		_, err = fmt.Fprint(w, matchTable(res))
		return err
	default:
		return writeAs(w, format, &res)
	}
}

func matrixMatcher(lab *pairlab.Lab, path string, genders, prefs []string, seed int64) (*pairlab.Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapWarn(err, "open score matrix")
	}
	defer f.Close()
	mx, err := score.ReadText(f)
	if err != nil {
		return nil, err
	}
	in, err := match.ParseInput(mx, genders, prefs)
	if err != nil {
		return nil, err
	}
	return lab.NewMatcherByInput(in, seed)
}

// readState / writeState RNG 快照檔（uvarint 長度前綴的 frame）
func readState(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapWarn(err, "open state file")
	}
	defer f.Close()
	return corefmt.ReadBlobFrame(f, corefmt.MaxSnapBytes)
}

func writeState(path, b64u string) error {
	snap, err := corefmt.DecodeBase64URL(b64u)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.Wrap(err, "create state file")
	}
	if err := corefmt.WriteBlobFrame(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// matchTable 每一對一列：proposer → receiver 與分數
func matchTable(res dto.MatchResult) string {
	keys := make([]string, 0, len(res.Pairs)+4)
	msg := make(map[string]string, len(res.Pairs)+4)
	for _, p := range res.Pairs {
		k := fmt.Sprintf("%s → %s", label(p.Proposer, p.ProposerName), label(p.Receiver, p.ReceiverName))
		keys = append(keys, k)
		msg[k] = printer.Sprintf("%.2f", p.Score)
	}
	extra := [][2]string{
		{"Pairs", printer.Sprintf("%d", len(res.Pairs))},
		{"Unmatched", printer.Sprintf("%d proposers, %d receivers", len(res.UnmatchedProposers), len(res.UnmatchedReceivers))},
		{"Rounds / Proposals", printer.Sprintf("%d / %d", res.Rounds, res.Proposals)},
		{"Total Score", printer.Sprintf("%.2f", res.TotalScore)},
	}
	for _, kv := range extra {
		keys = append(keys, kv[0])
		msg[kv[0]] = kv[1]
	}
	return stats.Table(res.Roster, keys, msg)
}

func label(id int, name string) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("#%d %s", id, name)
}

// ------------------------------------------------------------
// sim
// ------------------------------------------------------------

func doSim(c *cli.Context) error {
	runs, workers := c.Int("runs"), c.Int("workers")
	if runs < 1 {
		return errs.NewWarn("runs must > 0")
	}
	if workers < 1 {
		return errs.NewWarn("workers must > 0")
	}
	lab, err := loadLab(c)
	if err != nil {
		return err
	}
	seed := seedOf(c)
	sim, err := lab.NewSimulatorWithSeed(roster.RID(c.Uint("rid")), seed)
	if err != nil {
		return err
	}
	opts, err := optionsOf(c, sim.Options().Filter)
	if err != nil {
		return err
	}
	if err := sim.SetOptions(opts); err != nil {
		return err
	}

	format := c.String("format")
	showpb := format == "text" && !c.Bool("quiet")
	if format == "text" {
		printer.Fprintf(c.App.Writer, "%s[WORKERS:%d] [ROSTER:%s] [RUNS:%d] [SEED:%d]%s\n",
			green, workers, sim.Name, runs, seed, reset)
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	rep, used, err := sim.SimMP(ctx, runs, workers, showpb)
	if err != nil {
		return err
	}
	if format == "text" {
		rep.Fprint(c.App.Writer, used, c.Bool("members"))
		return nil
	}
	if !c.Bool("members") {
		rep.Members = nil
	}
	rd, err := stats.RenderOf(format)
	if err != nil {
		return err
	}
	return rep.WriteWith(c.App.Writer, rd)
}

// ------------------------------------------------------------
// score
// ------------------------------------------------------------

func doScore(c *cli.Context) error {
	lab, err := loadLab(c)
	if err != nil {
		return err
	}
	pop, err := lab.Population(context.Background(), roster.RID(c.Uint("rid")))
	if err != nil {
		return err
	}
	w := c.App.Writer
	if c.Bool("dump") {
		return pop.Input.Scores.WriteText(w)
	}

	a, err := memberByName(pop.Roster, c.String("a"))
	if err != nil {
		return err
	}
	b, err := memberByName(pop.Roster, c.String("b"))
	if err != nil {
		return err
	}
	sc := *lab.Scorer()
	if pop.Roster.MaxTotal > 0 {
		sc.MaxTotal = pop.Roster.MaxTotal
	}
	res := dto.NewScoreResultDTO(&sc, a, b)

	switch format := c.String("format"); format {
	case "text":
		keys := []string{a.Name + " → " + b.Name, b.Name + " → " + a.Name, "Admissible"}
		msg := map[string]string{
			keys[0]:      breakdownText(res.AToB),
			keys[1]:      breakdownText(res.BToA),
			"Admissible": fmt.Sprint(res.Admissible),
		}
		_, err = fmt.Fprint(w, stats.Table(pop.Name, keys, msg))
		return err
	default:
		return writeAs(w, format, &res)
	}
}

func memberByName(r *roster.Roster, name string) (*roster.Member, error) {
	if name == "" {
		return nil, errs.NewWarn("--a and --b are required unless --dump is given")
	}
	for _, m := range r.Members {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return nil, errs.Coded(errs.InvalidParam, "member %q not found in roster %q", name, r.Name)
}

func breakdownText(b score.Breakdown) string {
	if !b.Accepted {
		return "0 (not accepted)"
	}
	return printer.Sprintf("%.2f (grad gap %d, response diff %d)", b.Score, b.GradGap, b.RespDiff)
}

// writeAs json / yaml 輸出
func writeAs[T any](w io.Writer, format string, v *T) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		return stats.WriteYAML(w, v)
	default:
		return errs.Coded(errs.InvalidParam, "unsupported format %q (want text, json or yaml)", format)
	}
}
