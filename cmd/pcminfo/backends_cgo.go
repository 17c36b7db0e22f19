//go:build cgo

package main

import _ "github.com/gen2brain/speaker/output/malgo"
