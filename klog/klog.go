// Package klog holds the process-wide kernel logger.
package klog

import (
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

var L hclog.Logger

func init() {
	L = hclog.New(&hclog.LoggerOptions{})
	L.SetLevel(hclog.Info)

	if str := os.Getenv("KERNELKIT_TRACE"); str != "" {
		L.SetLevel(hclog.Trace)
	}
}
