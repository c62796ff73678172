package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/config"
	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/database"
	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/messaging"
	"github.com/iot-for-tillgenglighet/api-tollmanagement/pkg/handler"
)

const serviceName = "api-tollmanagement"

func openSegmentsFile(path string) *os.File {
	if path == "" {
		return nil
	}

	datafile, err := os.Open(path)
	if err != nil {
		log.Infof("Failed to open the segments file %s. Road segments will not be seeded.", path)
		return nil
	}
	return datafile
}

func configureLogging(cfg config.Config) {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(cfg.GetLogLevel())

	if cfg.LogFilePath == "" {
		return
	}

	logDir := filepath.Dir(cfg.LogFilePath)
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create log directory %s: %s", logDir, err.Error())
	}

	rotatingFile := &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    100,
		MaxBackups: 30,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}

	log.AddHook(lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: rotatingFile,
		log.FatalLevel: rotatingFile,
		log.ErrorLevel: rotatingFile,
		log.WarnLevel:  rotatingFile,
		log.InfoLevel:  rotatingFile,
		log.DebugLevel: rotatingFile,
	}, &log.JSONFormatter{}))
}

func main() {
	var configFileName, segmentsFileName string

	flag.StringVar(&configFileName, "config", "", "Path to a yaml configuration file")
	flag.StringVar(&segmentsFileName, "segsfile", "", "The file to seed road segments from")
	flag.Parse()

	cfg, err := config.Load(configFileName)
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err.Error())
	}

	if segmentsFileName == "" {
		segmentsFileName = cfg.SegmentsFile
	}

	configureLogging(cfg)

	logger := log.WithField("service", serviceName)
	logger.Infof("Starting up %s ...", serviceName)

	conn, err := database.NewConnector(cfg.Database, logger)()
	if err != nil {
		logger.Fatalf("Failed to connect to the toll database: %s", err.Error())
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	if datafile := openSegmentsFile(segmentsFileName); datafile != nil {
		_, err = database.SeedRoadSegments(conn, datafile, logger)
		datafile.Close()
		if err != nil {
			logger.Fatalf("Failed to seed road segments: %s", err.Error())
		}
	}

	store := database.NewTollManagementStore(logger)
	store.SetConnection(conn)

	messenger, err := messaging.RegisterReceivers(serviceName, store, logger)
	if err != nil {
		logger.Warnf("Running without message broker: %s", err.Error())
	} else {
		defer messenger.Close()
	}

	if err = handler.CreateRouterAndStartServing(store, cfg.Port, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
