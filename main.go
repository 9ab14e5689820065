// Copyright 2026 The Jimoto Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/jimoto/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
