package service_test

import (
	"io"
	"os"
	"testing"

	"github.com/okian/lyrics/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard, logger.FormatText); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
