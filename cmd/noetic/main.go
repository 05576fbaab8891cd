// Command noetic is the batch/interactive host for the noetic language:
// pkg/noetic implements the engine, this command owns everything the
// spec calls host-level - meta-commands, logging, and the knowledge-base
// table rendering - following gokando's own cmd/example split between
// "library does the reasoning, command does the reporting."
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/ryanuber/columnize"

	"github.com/brunelsparr/noetic/pkg/noetic"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		verbose       = flag.Bool("v", false, "enable debug-level clause-selection logging")
		judgeEndpoint = flag.String("judge-endpoint", "http://localhost:9090/v1/chat/completions", "judge chat-completions endpoint")
		judgeModel    = flag.String("judge-model", "gpt-4o-mini", "judge model name")
		threshold     = flag.Float64("judge-threshold", 0.7, "minimum similarity score treated as a match")
		embeddingMode = flag.Bool("judge-embedding", false, "use the embedding-based judge instead of chat completions")
	)
	flag.Parse()

	level := hclog.Info
	if *verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "noetic",
		Level: level,
	})

	var judge noetic.Judge
	if *embeddingMode {
		judge = noetic.NewEmbeddingJudge(
			noetic.WithEmbeddingThreshold(*threshold),
		)
	} else {
		judge = noetic.NewHTTPJudge(
			noetic.WithEndpoint(*judgeEndpoint),
			noetic.WithModel(*judgeModel),
			noetic.WithThreshold(*threshold),
		)
	}

	host := &host{
		kb:     noetic.NewKnowledgeBase(),
		output: stdoutPrinter{},
		logger: logger,
		judge:  judge,
	}
	host.rebuildEngine()

	if flag.NArg() == 1 {
		return host.runBatch(flag.Arg(0))
	}
	return host.runInteractive()
}

// stdoutPrinter implements noetic.Printer over os.Stdout.
type stdoutPrinter struct{}

func (stdoutPrinter) Print(s string) { fmt.Print(s) }

// stdinReader implements noetic.LineReader over os.Stdin.
type stdinReader struct {
	scanner *bufio.Scanner
}

func (r *stdinReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("end of input")
	}
	return r.scanner.Text(), nil
}

// host owns the knowledge base, engine, and judge configuration across the
// lifetime of a run - rebuilt by :clear and consulted by every other
// meta-command.
type host struct {
	kb     *noetic.KnowledgeBase
	engine *noetic.Engine
	driver *noetic.Driver
	output noetic.Printer
	logger hclog.Logger
	judge  noetic.Judge
	input  *stdinReader
}

// rebuildEngine rebuilds the engine bound to h.kb and points driver at both,
// so a driver created before a ":clear" never keeps running queries against
// the knowledge base and engine :clear just replaced.
func (h *host) rebuildEngine() {
	opts := []noetic.EngineOption{
		noetic.WithJudge(h.judge),
		noetic.WithOutput(h.output),
		noetic.WithLogger(h.logger),
	}
	if h.input != nil {
		opts = append(opts, noetic.WithInput(h.input))
	}
	h.engine = noetic.NewEngine(h.kb, opts...)
	if h.driver == nil {
		h.driver = noetic.NewDriver(h.kb, h.engine, h.output, h.logger)
		return
	}
	h.driver.KB = h.kb
	h.driver.Engine = h.engine
}

// runBatch lexes, parses, loads, and runs every declaration and query in
// path in order. Exit code 0 on success, 1 on a lex/parse error
// (spec §6's "non-zero on lex/parse error"), 2 if the file could not be
// read.
func (h *host) runBatch(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "noetic:", err)
		return 2
	}
	h.input = &stdinReader{scanner: bufio.NewScanner(os.Stdin)}
	h.rebuildEngine()

	if err := h.driver.RunSource(context.Background(), string(source)); err != nil {
		fmt.Fprintln(os.Stderr, "noetic:", err)
		return 1
	}
	return 0
}

// runInteractive reads statements one at a time from stdin. Lines starting
// with ":" are meta-commands handled entirely here, never by pkg/noetic
// (spec §6).
func (h *host) runInteractive() int {
	h.input = &stdinReader{scanner: bufio.NewScanner(os.Stdin)}
	h.rebuildEngine()

	fmt.Println("noetic interactive mode - :help for commands, :quit to exit")
	for {
		fmt.Print("?- ")
		if !h.input.scanner.Scan() {
			return 0
		}
		line := strings.TrimSpace(h.input.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := h.handleMeta(line); quit {
				return 0
			}
			continue
		}

		decl, err := noetic.ParseStatement(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "noetic:", err)
			continue
		}
		h.handleDeclaration(decl)
	}
}

func (h *host) handleDeclaration(decl noetic.Declaration) {
	switch d := decl.(type) {
	case *noetic.QueryDecl:
		h.driver.RunQuery(context.Background(), d.Goal)
	default:
		if _, err := noetic.LoadProgram(h.kb, &noetic.Program{Declarations: []noetic.Declaration{decl}}); err != nil {
			fmt.Fprintln(os.Stderr, "noetic:", err)
		}
	}
}

// handleMeta runs a ":"-prefixed command and reports whether the host
// should exit.
func (h *host) handleMeta(line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	switch cmd {
	case ":help":
		fmt.Println("Meta-commands: :help :kb :kb_save <file> :kb_load <file> :clear :quit")
	case ":kb":
		h.printKB()
	case ":kb_save":
		if len(fields) < 2 {
			fmt.Fprintln(os.Stderr, "noetic: :kb_save requires a file path")
			return false
		}
		if err := os.WriteFile(fields[1], []byte(serializeKB(h.kb)), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "noetic:", err)
		}
	case ":kb_load":
		if len(fields) < 2 {
			fmt.Fprintln(os.Stderr, "noetic: :kb_load requires a file path")
			return false
		}
		source, err := os.ReadFile(fields[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "noetic:", err)
			return false
		}
		prog, err := noetic.ParseProgram(string(source))
		if err != nil {
			fmt.Fprintln(os.Stderr, "noetic:", err)
			return false
		}
		if _, err := noetic.LoadProgram(h.kb, prog); err != nil {
			fmt.Fprintln(os.Stderr, "noetic:", err)
		}
	case ":clear":
		h.kb = noetic.NewKnowledgeBase()
		h.rebuildEngine()
	case ":quit":
		return true
	default:
		fmt.Fprintln(os.Stderr, "noetic: unknown meta-command", cmd)
	}
	return false
}

// printKB renders concepts and entities as columnize tables, grounded on
// hashicorp-nomad's dependency on github.com/ryanuber/columnize for
// human-facing CLI tabular output.
func (h *host) printKB() {
	fmt.Println(h.kb.Summary())

	conceptLines := []string{"Concept | Genus | Attributes | Essentials"}
	for _, c := range h.kb.Concepts() {
		conceptLines = append(conceptLines, fmt.Sprintf("%s | %s | %s | %s",
			c.Name, c.Genus, strings.Join(c.Attributes, ", "), strings.Join(c.Essentials, ", ")))
	}
	if len(conceptLines) > 1 {
		fmt.Println(columnize.SimpleFormat(conceptLines))
	}

	entityLines := []string{"Entity | Concept | Description"}
	for _, e := range h.kb.Entities() {
		entityLines = append(entityLines, fmt.Sprintf("%s | %s | %s", e.Name, e.ConceptType, e.Description))
	}
	if len(entityLines) > 1 {
		fmt.Println(columnize.SimpleFormat(entityLines))
	}
}
