package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByteMirror/ghostmaze/app"
	"github.com/ByteMirror/ghostmaze/config"
	"github.com/ByteMirror/ghostmaze/ghost"
	"github.com/ByteMirror/ghostmaze/log"
	"github.com/ByteMirror/ghostmaze/maze"
	"github.com/ByteMirror/ghostmaze/publish"
	"github.com/ByteMirror/ghostmaze/supervisor"
)

var (
	version = "1.0.0"

	widthFlag    int
	heightFlag   int
	ghostsFlag   int
	capacityFlag int
	seedFlag     int64
	headlessFlag bool

	rootCmd = &cobra.Command{
		Use:   "ghostmaze",
		Short: "Ghostmaze - concurrent ghosts racing through a generated maze",
		Long: `Ghostmaze simulates independently scheduled ghost workers traversing a
procedurally generated maze, doing simulated work at checkpoints and
contending for capacity-limited bottlenecks. Ghosts can be paused, resumed,
and terminated at any time, including mid-task and mid-wait.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			cfg := config.LoadConfig()
			if cmd.Flags().Changed("width") {
				cfg.MazeWidth = widthFlag
			}
			if cmd.Flags().Changed("height") {
				cfg.MazeHeight = heightFlag
			}
			if cmd.Flags().Changed("ghosts") {
				cfg.Ghosts = ghostsFlag
			}
			if cmd.Flags().Changed("capacity") {
				cfg.BottleneckCapacity = capacityFlag
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seedFlag
			}

			m, err := maze.Generate(maze.Options{
				Width:       cfg.MazeWidth,
				Height:      cfg.MazeHeight,
				Checkpoints: cfg.Checkpoints,
				Bottlenecks: 1,
				Seed:        cfg.Seed,
			})
			if err != nil {
				return fmt.Errorf("failed to generate maze: %w", err)
			}

			sup, err := supervisor.New(supervisor.Options{
				Maze:         m,
				GateCapacity: cfg.BottleneckCapacity,
				StepInterval: time.Duration(cfg.StepIntervalMs) * time.Millisecond,
				Tasks: ghost.TaskDurations{
					CPUMin: time.Duration(cfg.TaskCPUMinMs) * time.Millisecond,
					CPUMax: time.Duration(cfg.TaskCPUMaxMs) * time.Millisecond,
					IOMin:  time.Duration(cfg.TaskIOMinMs) * time.Millisecond,
					IOMax:  time.Duration(cfg.TaskIOMaxMs) * time.Millisecond,
				},
				Seed: cfg.Seed,
			})
			if err != nil {
				return fmt.Errorf("failed to create supervisor: %w", err)
			}

			for i := 0; i < cfg.Ghosts; i++ {
				if _, err := sup.CreateWorker(); err != nil {
					return fmt.Errorf("failed to spawn ghost: %w", err)
				}
			}

			pub := publish.New(sup, time.Duration(cfg.PublishIntervalMs)*time.Millisecond)
			pub.Start()
			defer pub.Stop()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if headlessFlag {
				err = runHeadless(ctx, pub)
			} else {
				err = app.Run(ctx, sup, pub)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if sErr := sup.Shutdown(shutdownCtx); sErr != nil {
				log.WarningLog.Printf("shutdown: %v", sErr)
			}
			return err
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ghostmaze",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ghostmaze version %s\n", version)
		},
	}
)

// runHeadless logs one summary line per published snapshot until interrupted
// or every ghost has reached a terminal state and been reaped.
func runHeadless(ctx context.Context, pub *publish.Publisher) error {
	snaps, cancel := pub.Subscribe()
	defer cancel()

	sawGhost := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if len(snap.Ghosts) > 0 {
				sawGhost = true
			} else if sawGhost {
				fmt.Println("all ghosts done")
				return nil
			}
			for _, r := range snap.Ghosts {
				fmt.Printf("#%d %-10s %-10s %s pos=%s progress=%.0f%% tasks=%d/%d\n",
					snap.Seq, r.Name, r.Status, r.Activity, r.Position,
					r.Progress*100, r.TasksDone, r.TasksTotal)
			}
		}
	}
}

func init() {
	rootCmd.Flags().IntVar(&widthFlag, "width", 43, "Maze width in cells (rounded up to odd)")
	rootCmd.Flags().IntVar(&heightFlag, "height", 23, "Maze height in cells (rounded up to odd)")
	rootCmd.Flags().IntVarP(&ghostsFlag, "ghosts", "g", 3, "Number of ghosts to spawn at startup")
	rootCmd.Flags().IntVar(&capacityFlag, "capacity", 1, "Bottleneck gate capacity")
	rootCmd.Flags().Int64Var(&seedFlag, "seed", 0, "RNG seed for maze generation and task durations (0 = random)")
	rootCmd.Flags().BoolVar(&headlessFlag, "headless", false, "Log snapshot summaries instead of running the TUI")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
