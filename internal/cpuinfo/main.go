// Copyright 2025 go-variant Authors
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

// Package main prints the SIMD variant selected for this machine and the CPU
// features behind it.
package main

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-variant/variant"
)

func main() {
	fmt.Printf("GOOS: %s\n", runtime.GOOS)
	fmt.Printf("GOARCH: %s\n", runtime.GOARCH)
	fmt.Printf("NumCPU: %d\n", runtime.NumCPU())
	fmt.Println()

	fmt.Printf("Build variant: %s (flags %s, recognized %v)\n",
		variant.BuildVariant, variant.BuildFlags(), variant.BuildRecognized())
	fmt.Printf("Runtime variant: %s (flags %s, detected %v)\n",
		variant.Current(), variant.CurrentFlags(), variant.Detected())
	if err := variant.EnvError(); err != nil {
		fmt.Printf("Ignored environment: %v\n", err)
	}
	fmt.Printf("FullName(\"checkBulk\"): %s\n", variant.FullName("checkBulk"))
	fmt.Println()

	for _, name := range []string{"sys", "cpuid"} {
		d, err := variant.DetectorByName(name)
		if err != nil {
			fmt.Printf("%-6s error: %v\n", name, err)
			continue
		}
		v, flags, err := variant.Detect(d)
		if err != nil {
			fmt.Printf("%-6s error: %v\n", name, err)
			continue
		}
		fmt.Printf("%-6s %-5s %s\n", name, v, flags)
	}
	fmt.Println()

	switch runtime.GOARCH {
	case "arm64":
		printARM64Features()
	case "arm":
		printARMFeatures()
	case "amd64", "386":
		printX86Features()
	}
}

func printARM64Features() {
	fmt.Println("=== golang.org/x/sys/cpu.ARM64 ===")
	fmt.Printf("  HasASIMD:    %v (NEON baseline)\n", cpu.ARM64.HasASIMD)
	fmt.Printf("  HasFP:       %v (Floating point)\n", cpu.ARM64.HasFP)
	fmt.Printf("  HasASIMDHP:  %v (FP16 NEON, ARMv8.2-A)\n", cpu.ARM64.HasASIMDHP)
	fmt.Printf("  HasSVE:      %v (Scalable Vector Extension)\n", cpu.ARM64.HasSVE)
	fmt.Printf("  HasSVE2:     %v (SVE2)\n", cpu.ARM64.HasSVE2)
}

func printARMFeatures() {
	fmt.Println("=== golang.org/x/sys/cpu.ARM ===")
	fmt.Printf("  HasNEON:     %v\n", cpu.ARM.HasNEON)
	fmt.Printf("  HasVFPv4:    %v\n", cpu.ARM.HasVFPv4)
}

func printX86Features() {
	fmt.Println("=== golang.org/x/sys/cpu.X86 ===")
	fmt.Printf("  HasSSE2:    %v\n", cpu.X86.HasSSE2)
	fmt.Printf("  HasSSE3:    %v\n", cpu.X86.HasSSE3)
	fmt.Printf("  HasSSSE3:   %v\n", cpu.X86.HasSSSE3)
	fmt.Printf("  HasSSE41:   %v\n", cpu.X86.HasSSE41)
	fmt.Printf("  HasSSE42:   %v\n", cpu.X86.HasSSE42)
	fmt.Printf("  HasPOPCNT:  %v\n", cpu.X86.HasPOPCNT)
	fmt.Printf("  HasAVX:     %v\n", cpu.X86.HasAVX)
	fmt.Printf("  HasAVX2:    %v\n", cpu.X86.HasAVX2)
	fmt.Printf("  HasAVX512F: %v\n", cpu.X86.HasAVX512F)
}
