package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-armsim/armsim/core"
	"github.com/go-armsim/armsim/internal/obslog"
	"github.com/go-armsim/armsim/mem"
)

func main() {
	var (
		entry    uint64
		maxSteps int
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:   "armsim",
		Short: "A small ARMv8 instruction decode-and-execute simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Load a flat binary of little-endian 32-bit words and run it to HLT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := obslog.New(verbose)

			words, err := loadWords(args[0])
			if err != nil {
				return fmt.Errorf("loading program: %w", err)
			}

			m := mem.New()
			m.LoadWords(entry, words)

			e := core.NewEngine(m)
			e.SetState(core.State{PC: entry, Run: true})

			log.Info("program loaded", "words", len(words), "entry", fmt.Sprintf("0x%x", entry))

			steps := 0
			for e.State().Run && (maxSteps == 0 || steps < maxSteps) {
				s := e.State()
				log.Debug("step", "pc", fmt.Sprintf("0x%x", s.PC))
				e.Step()
				steps++
			}

			if e.State().Run {
				log.Info("stopped: max step count reached", "steps", steps)
			} else {
				log.Info("halted", "steps", steps)
			}

			printState(e.State())
			return nil
		},
	}
	runCmd.Flags().Uint64Var(&entry, "entry", 0x400000, "byte address of the first instruction")
	runCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after this many steps (0 = run until HLT)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every fetched instruction's PC")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadWords reads a file of little-endian uint32 words.
func loadWords(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("file length %d is not a multiple of 4", len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return words, nil
}

// printState dumps the final register file, PC, and flags to stdout.
func printState(s *core.State) {
	fmt.Printf("PC   = 0x%016x\n", s.PC)
	fmt.Printf("Z=%v N=%v run=%v\n", s.FlagZ, s.FlagN, s.Run)
	for i := 0; i < 32; i += 4 {
		fmt.Printf("X%-2d=0x%016x  X%-2d=0x%016x  X%-2d=0x%016x  X%-2d=0x%016x\n",
			i, s.Regs[i], i+1, s.Regs[i+1], i+2, s.Regs[i+2], i+3, s.Regs[i+3])
	}
}
