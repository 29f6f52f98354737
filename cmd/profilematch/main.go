package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"profilematch/internal"
	"profilematch/internal/config"
	"profilematch/internal/connectors"
	"profilematch/internal/listener"
	"profilematch/internal/logging"
	"profilematch/internal/oracle"
	"profilematch/internal/pipeline"
	"profilematch/internal/server"
	"profilematch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	// commands that never touch the database
	switch cmd {
	case "profiles:parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", cfg.ProfilesDir, "profiles directory")
		out := fs.String("out", filepath.Join(cfg.OutputDir, "parsed_data.json"), "output json path")
		_ = fs.Parse(args)
		res, err := pipeline.NewProcessingService(nil, cfg, log).ParseDirectory(ctx, *dir)
		must(err)
		must(pipeline.SaveParsedJSON(res.Documents, *out))
		fmt.Printf("parsed documents=%d slides=%d skipped=%d failed=%d output=%s\n", res.Loaded, res.Slides, res.Skipped, res.Failed, *out)
		return
	case "profiles:preview":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		in := fs.String("in", filepath.Join(cfg.OutputDir, "parsed_data.json"), "parsed json path")
		_ = fs.Parse(args)
		docs, err := pipeline.LoadParsedJSON(*in)
		must(err)
		preview(os.Stdout, docs)
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	switch cmd {
	case "profiles:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", cfg.ProfilesDir, "profiles directory")
		_ = fs.Parse(args)
		res, err := pipeline.NewProcessingService(db, cfg, log).LoadDirectory(ctx, *dir)
		must(err)
		fmt.Printf("load done documents=%d slides=%d unchanged=%d removed=%d skipped=%d failed=%d\n", res.Loaded, res.Slides, res.Unchanged, res.Removed, res.Skipped, res.Failed)
	case "profiles:clear":
		must(db.ClearProfiles())
		fmt.Println("profiles cleared")
	case "profiles:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "consultant name as parsed from a slide")
		_ = fs.Parse(args)
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		row, err := db.GetConsultantByName(*name)
		must(err)
		if row == nil {
			must(fmt.Errorf("consultant not found: %s", *name))
		}
		slides, err := db.ListSlidesByConsultantID(row.ID)
		must(err)
		fmt.Printf("%s | %s | %s | %s | %s\n", row.Name, row.Title, row.Email, row.Mobile, row.Location)
		for _, s := range slides {
			fmt.Printf("  slide %d: %s\n", s.SlideNum, s.Data)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", "", "parse this directory instead of reading stored profiles")
		out := fs.String("out", filepath.Join(cfg.OutputDir, "profiles.xlsx"), "output xlsx path")
		_ = fs.Parse(args)
		var docs []internal.DocumentRecord
		if strings.TrimSpace(*dir) != "" {
			res, err := pipeline.NewProcessingService(nil, cfg, log).ParseDirectory(ctx, *dir)
			must(err)
			docs = res.Documents
		} else {
			docs, err = db.ListDocuments()
			must(err)
		}
		must(pipeline.ExportSlidesToXLSX(docs, *out))
		fmt.Printf("exported documents=%d to %s\n", len(docs), *out)
	case "search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		skills := fs.String("skills", "", "free-text skill query")
		_ = fs.Parse(args)
		svc, closeRanker := newSearchService(ctx, cfg, db, log)
		defer closeRanker()
		out, err := svc.Search(ctx, *skills)
		must(err)
		fmt.Println(out)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.ServerAddr, "listen address")
		_ = fs.Parse(args)
		svc, closeRanker := newSearchService(ctx, cfg, db, log)
		defer closeRanker()
		must(server.New(*addr, svc, log).Run(ctx))
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.ListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.ListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(args)
		conn, err := connectors.New(ctx, cfg, *provider)
		must(err)
		result, err := connectors.NewFetchService(db, cfg.RawMailDir, conn).FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "gmail|imap, empty for all")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(args)
		svc := connectors.NewAttachmentService(db, cfg.ProfilesDir, log)
		if strings.TrimSpace(*messageID) != "" {
			n, err := svc.ExtractByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("extracted attachments=%d\n", n)
			return
		}
		res, err := svc.ExtractPending(*batch, *provider)
		must(err)
		fmt.Printf("extracted messages=%d attachments=%d skipped=%d\n", res.Messages, res.Written, res.Skipped)
	case "mail:listen":
		must(listener.NewService(db, cfg, log).Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

// newSearchService returns the service and a func releasing the ranker.
func newSearchService(ctx context.Context, cfg config.Config, db *storage.DB, log zerolog.Logger) (*oracle.SearchService, func()) {
	ranker, err := oracle.NewRanker(ctx, cfg)
	must(err)
	closeRanker := func() {
		if c, ok := ranker.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return oracle.NewSearchService(db, ranker, log), closeRanker
}

func preview(w io.Writer, docs []internal.DocumentRecord) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "no parsed profiles")
		return
	}
	for _, doc := range docs {
		fmt.Fprintf(w, "%s (%d slides)\n", doc.Filename, len(doc.Slides))
		for _, s := range doc.Slides {
			p := s.ParsedData
			fmt.Fprintf(w, "  [%d] name=%q title=%q email=%q mobile=%q location=%q\n", s.SlideNum, p.Name, p.Title, p.Email, p.Mobile, p.Location)
			if p.Data != "" {
				fmt.Fprintf(w, "      %s\n", p.Data)
			}
		}
	}
}

func usage() {
	fmt.Println("usage: profilematch <command>")
	fmt.Println("commands:")
	fmt.Println("  profiles:load [--dir=./profiles]")
	fmt.Println("  profiles:parse [--dir=./profiles] [--out=./out/parsed_data.json]")
	fmt.Println("  profiles:preview [--in=./out/parsed_data.json]")
	fmt.Println("  profiles:show --name=\"Jane Doe\"")
	fmt.Println("  profiles:clear")
	fmt.Println("  export:xlsx [--dir=./profiles] [--out=./out/profiles.xlsx]")
	fmt.Println("  search --skills=\"AWS, Terraform\"")
	fmt.Println("  serve [--addr=:5000]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:extract [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
