package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/pgshift/logger"
	log "github.com/sirupsen/logrus"
)

var _ = Describe("Logger", func() {
	l := logger.NewLoggerWithFormatter("test-service", "debug", true, &log.JSONFormatter{})

	decode := func(b *bytes.Buffer) map[string]interface{} {
		var actual map[string]interface{}
		_ = json.Unmarshal(b.Bytes(), &actual)
		return actual
	}

	It("Should have `test-service` as service name", func() {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		l.Info("Testing")
		Expect(decode(logOutput)["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		l.Info("Testing")
		Expect(decode(logOutput)["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		l.Warn("Testing")
		Expect(decode(logOutput)["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		l.Error("Testing")
		actual := decode(logOutput)
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		l.Info("Testing")
		Expect(decode(logOutput)["msg"]).To(Equal("Testing"))
	})

	It("Should carry fields added by WithField", func() {
		logOutput := bytes.NewBufferString("")
		l.SetOutput(logOutput)
		l.WithField("table", "films").Info("Testing")
		actual := decode(logOutput)
		Expect(actual["table"]).To(Equal("films"))
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should not log debug entries on a child logger when the level is info", func() {
		quiet := logger.NewLoggerWithFormatter("test-service", "info", false, &log.JSONFormatter{})
		logOutput := bytes.NewBufferString("")
		quiet.SetOutput(logOutput)
		quiet.WithField("table", "films").Debug("hidden")
		Expect(logOutput.Len()).To(Equal(0))
		// Restore the level used by the other specs.
		_ = logger.NewLoggerWithFormatter("test-service", "debug", true, &log.JSONFormatter{})
	})
})
