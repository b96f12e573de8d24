// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/Netcracker/qubership-apihub-http-forensics/controllers"
	"github.com/Netcracker/qubership-apihub-http-forensics/entities"
	"github.com/Netcracker/qubership-apihub-http-forensics/exception"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/artifact"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/capture"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/cloud_storage"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/db"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/disk_cache"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/publisher"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/report"
	"github.com/Netcracker/qubership-apihub-http-forensics/services/service"
	"github.com/Netcracker/qubership-apihub-http-forensics/view"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/netcracker/qubership-core-lib-go/v3/configloader"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	imageDigestCacheName = "image_digests"
	shutdownTimeout      = 10 * time.Second
)

// init
// initialises logging
func init() {
	basePath := os.Getenv("BASE_PATH")
	if basePath == "" {
		basePath = "."
	}
	mw := io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename: path.Join(basePath, "logs", "http_forensics.log"),
		MaxSize:  10, // megabytes
	})
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	logLevel, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(mw)
}

// init
// initialises configuration sources, config.yaml is optional
func init() {
	sourceParams := configloader.YamlPropertySourceParams{ConfigFilePath: "config.yaml"}
	configloader.Init(configloader.BasePropertySources(sourceParams)...)
}

// sinks
// side outputs shared by every run of the process
type sinks struct {
	transactions []report.TransactionSink
	images       []report.ImageSink
	flows        []report.FlowSink
	closers      []func() error
}

func (s *sinks) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close
// closes in reverse order so the cloud storage queue drains last
func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Errorf("unable to close sink: %v", err)
		}
	}
}

// registry
// report registry for one run with every configured sink attached
func (s *sinks) registry(runId string) *report.Registry {
	r := report.NewRegistry(runId)
	for _, sink := range s.transactions {
		r.AddTransactionSink(sink)
	}
	for _, sink := range s.images {
		r.AddImageSink(sink)
	}
	for _, sink := range s.flows {
		r.AddFlowSink(sink)
	}
	return r
}

// openSinks
// connects the side outputs which are configured
func openSinks(sis service.SystemInfoService, ac entities.AnalysisConfig) (*sinks, error) {
	s := &sinks{}
	creds, err := sis.GetMinioCredentials()
	if err != nil {
		return nil, err
	}
	storage := cloud_storage.NewCloudStorage(*creds, sis.GetBool(service.ProductionMode))
	s.onClose(func() error {
		storage.Close()
		return nil
	})
	if attrs := sis.GetDbConnAttrs(); attrs.IsActive() {
		conn, err := db.MakeConnection(attrs)
		if err != nil {
			s.Close()
			return nil, err
		}
		store, err := db.NewTransactionStore(conn)
		if err != nil {
			_ = conn.Close()
			s.Close()
			return nil, err
		}
		s.transactions = append(s.transactions, store)
		s.onClose(store.Close)
		log.Infof("transaction store %s activated", attrs.Driver)
	}
	var brokers []publisher.MessagePublisher
	pc := sis.GetPublisherConfig()
	if len(pc.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafkaPublisher(pc.KafkaBrokers, pc.KafkaTopic)
		if err != nil {
			log.Errorf("kafka publishing disabled: %v", err)
		} else {
			brokers = append(brokers, kafka)
		}
	}
	if pc.NatsUrl != view.EmptyString {
		nats, err := publisher.NewNatsPublisher(pc.NatsUrl, pc.NatsSubject)
		if err != nil {
			log.Errorf("NATS publishing disabled: %v", err)
		} else {
			brokers = append(brokers, nats)
		}
	}
	if len(brokers) > 0 {
		tp := publisher.NewTransactionPublisher(brokers...)
		s.transactions = append(s.transactions, tp)
		s.onClose(tp.Close)
	}
	if ac.ExportDirectory != view.EmptyString {
		digests, err := disk_cache.NewDiskCache(imageDigestCacheName, ac.CacheDirectory)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.onClose(digests.Close)
		exporter, err := artifact.NewImageExporter(ac.ExportDirectory, digests, storage)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.images = append(s.images, exporter)
		log.Infof("image export to %s activated", ac.ExportDirectory)
	}
	if ac.FlowExportDir != view.EmptyString {
		exporter, err := artifact.NewFlowExporter(ac.FlowExportDir, storage)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.flows = append(s.flows, exporter)
		log.Infof("flow export to %s activated", ac.FlowExportDir)
	}
	return s, nil
}

// configure
// applies command line overrides on top of the environment
func configure(c *cli.Context) (service.SystemInfoService, entities.AnalysisConfig, error) {
	if c.IsSet("log-level") {
		level, err := log.ParseLevel(c.String("log-level"))
		if err != nil {
			return nil, entities.AnalysisConfig{}, err
		}
		log.SetLevel(level)
	}
	sis, err := service.NewSystemInfoService(configloader.GetKoanf())
	if err != nil {
		return nil, entities.AnalysisConfig{}, err
	}
	ac := sis.GetAnalysisConfig()
	if c.IsSet("max-size") {
		ac.MaxCaptureSize = c.Int64("max-size")
	}
	if c.IsSet("export-flows") {
		ac.FlowExportDir = c.String("export-flows")
	}
	if c.IsSet("export-images") {
		ac.ExportDirectory = c.String("export-images")
	}
	return sis, ac, nil
}

// analyze
// reads the whole capture and runs the requested reports
func analyze(c *cli.Context) int {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := bufio.NewWriter(os.Stdout)
	defer func() {
		if err := out.Flush(); err != nil {
			log.Errorf("unable to flush output: %v", err)
		}
	}()
	if c.NArg() == 0 {
		return report.RunReports(ctx, report.NewRegistry(view.EmptyString), nil, nil, out)
	}
	sis, ac, err := configure(c)
	if err != nil {
		log.Errorf("unable to prepare configuration: %v", err)
		return exception.ExitUsage
	}
	var input io.Reader = os.Stdin
	if fileName := c.String("input"); fileName != view.EmptyString {
		fh, err := os.Open(fileName)
		if err != nil {
			log.Errorf("unable to open capture: %v", err)
			return exception.ExitMalformedCapture
		}
		defer fh.Close()
		input = fh
	}
	cb, err := capture.ReadCapture(input, ac.MaxCaptureSize)
	if err != nil {
		log.Error(err.Error())
		return exception.ExitCode(err)
	}
	log.Infof("run %s: %d byte(s) of capture read", ac.RunId, cb.Size())
	s, err := openSinks(sis, ac)
	if err != nil {
		log.Errorf("unable to open sinks: %v", err)
		return exception.ExitInternalError
	}
	defer s.Close()
	return report.RunReports(ctx, s.registry(ac.RunId), cb, c.Args().Slice(), out)
}

func makeServer(sc entities.ServerConfig, r *mux.Router) *http.Server {
	log.Infof("Listen addr = %s", sc.ListenAddress)

	var corsOptions []handlers.CORSOption

	corsOptions = append(corsOptions,
		handlers.AllowedHeaders([]string{
			"Connection",
			"Accept-Encoding",
			"Content-Encoding",
			"X-Requested-With",
			controllers.HttpContentType,
			"Authorization"}))

	if sc.OriginAllowed != "" {
		corsOptions = append(corsOptions, handlers.AllowedOrigins([]string{sc.OriginAllowed}))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet}))

	return &http.Server{
		Handler:      handlers.CompressHandler(handlers.CORS(corsOptions...)(r)),
		Addr:         sc.ListenAddress,
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
}

// serve
// runs reports over captures posted to the web service
func serve(c *cli.Context) error {
	sis, ac, err := configure(c)
	if err != nil {
		return err
	}
	s, err := openSinks(sis, ac)
	if err != nil {
		return err
	}
	defer s.Close()
	ws := controllers.NewWebService(ac.MaxCaptureSize, s.registry)
	srv := makeServer(sis.GetServerConfig(), controllers.NewRouter(ws))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down the web service")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	exitCode := exception.ExitOk
	analysisFlags := []cli.Flag{
		&cli.Int64Flag{
			Name:  "max-size",
			Value: view.DefaultMaxCaptureSize,
			Usage: "the biggest capture accepted, bytes",
		},
		&cli.StringFlag{
			Name:  "export-images",
			Usage: "directory to write extracted images to",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "A logging level: (trace, debug, info, warning, error, fatal, panic)",
		},
	}
	app := &cli.App{
		Name:      "http-forensics",
		Usage:     "offline HTTP forensics over a pcap capture",
		ArgsUsage: "<report>... (1 counters, 2 flows, 3 transactions, 4 images)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "capture file, standard input when empty",
			},
			&cli.StringFlag{
				Name:  "export-flows",
				Usage: "directory to write every HTTP flow to as a pcap file",
			},
		}, analysisFlags...),
		Action: func(c *cli.Context) error {
			exitCode = analyze(c)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run reports over captures posted to " + controllers.ReportPath,
				Flags: analysisFlags,
				Action: func(c *cli.Context) error {
					if err := serve(c); err != nil {
						log.Errorf("Service fatal error: %v", err)
						exitCode = exception.ExitInternalError
					}
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		exitCode = exception.ExitUsage
	}
	os.Exit(exitCode)
}
