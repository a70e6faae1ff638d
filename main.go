// Package main provides the entry point for treenav, which walks the
// project tree of a requirements tool and exports the wanted modules.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"treenav/internal/abort"
	"treenav/internal/capture"
	"treenav/internal/config"
	"treenav/internal/driver"
	"treenav/internal/navigate"
	"treenav/internal/ocr"
	"treenav/internal/session"
	"treenav/internal/template"
	"treenav/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "treenav.yaml", "Path to the YAML configuration")
	projects := flag.String("projects", "", "Comma-separated project codes (overrides config)")
	domains := flag.String("domains", "", "Comma-separated domains (overrides config)")
	useCases := flag.String("usecases", "", "Comma-separated use cases (overrides config)")
	vfs := flag.String("vfs", "", "Comma-separated module prefixes to export (overrides config)")
	debug := flag.Bool("debug", false, "Write debug images")
	saveConfig := flag.String("save-config", "", "Write the effective configuration to this path and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	override(&cfg.Run.Projects, *projects)
	override(&cfg.Run.Domains, *domains)
	override(&cfg.Run.UseCases, *useCases)
	override(&cfg.Run.VFs, *vfs)
	if *debug {
		cfg.Debug = true
	}
	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			log.Fatalf("Failed to save configuration: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", *saveConfig)
		return
	}
	if len(cfg.Run.Projects) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: treenav [-config treenav.yaml] -projects P1,P2 [-domains D] [-usecases U] [-vfs VF]")
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

func run(cfg *config.Config) error {
	sess, err := session.New(session.Options{
		LogDir:   cfg.LogDir,
		DebugDir: cfg.DebugDir,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return err
	}
	defer sess.Close()
	sess.Infof("Starting %s, run %s", version.String(), sess.ID)

	engine, err := ocr.NewEngine(cfg.OCRLang)
	if err != nil {
		return err
	}
	defer engine.Close()
	sess.Infof("Tesseract %s", engine.Version())

	store := template.NewStore(cfg.AssetsDir, sess)
	defer store.Close()

	vision := navigate.NewVision(capture.NewScreen(), store, engine, cfg, sess)
	robot := driver.NewRobot()
	machine := navigate.NewMachine(vision, robot, navigate.NewStepExporter(vision, robot, cfg, sess), cfg, sess)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	stop := abort.Watch(ctx, cfg.AbortKey, cancel, sess)
	defer stop()

	type result struct {
		report *navigate.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := machine.Run(ctx, cfg.Run)
		done <- result{report, err}
	}()
	res := <-done

	if res.report != nil {
		sess.Infof("Projects opened: %d, skipped: %d", res.report.Projects, len(res.report.Skipped))
		sess.Infof("Modules found: %d, exported: %d, failed: %d",
			len(res.report.Modules), len(res.report.Exported), len(res.report.Failed))
	}
	for _, p := range sess.Paths() {
		fmt.Println(p)
	}
	return res.err
}

func override(dst *[]string, csv string) {
	if csv == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
