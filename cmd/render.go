package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pattern-studio/core"
	"pattern-studio/editor"
	"pattern-studio/editor/canvas"
	"pattern-studio/editor/tools"
)

type (
	// Script is a recorded editing session.
	Script struct {
		Events []ScriptEvent `json:"events"`
	}

	// ScriptEvent is one pointer, tool or history action. Type is one of
	// down, move, up, leave, tool, undo, redo, clear.
	ScriptEvent struct {
		Type      string `json:"type"`
		X         int    `json:"x,omitempty"`
		Y         int    `json:"y,omitempty"`
		Tool      string `json:"tool,omitempty"`
		BrushSize int    `json:"brushSize,omitempty"`
		Color     string `json:"color,omitempty"`
	}
)

var (
	renderOut       string
	renderThumbnail bool
)

var renderCmd = &cobra.Command{
	Use:   "render <script.json>",
	Short: "Replay a pointer event script offline and write the canvas as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return err
		}
		defer f.Close()

		script, err := parseScript(f)
		if err != nil {
			return err
		}

		snap, err := renderScript(script, renderThumbnail)
		if err != nil {
			return err
		}

		if err := os.WriteFile(renderOut, snap.Bytes(), 0644); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"events": len(script.Events), "out": renderOut}).Info("Canvas rendered")
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "pattern.png", "Output PNG file.")
	renderCmd.Flags().BoolVar(&renderThumbnail, "thumbnail", false, "Write a thumbnail instead of the full canvas.")
	rootCmd.AddCommand(renderCmd)
}

func parseScript(r io.Reader) (*Script, error) {
	var script Script
	if err := json.NewDecoder(r).Decode(&script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	return &script, nil
}

// replay drives a fresh editor through the script.
func replay(script *Script) (*editor.Editor, error) {
	e, err := editor.New("render", "cli", editor.Options{})
	if err != nil {
		return nil, err
	}

	for i, ev := range script.Events {
		p := core.Point{X: ev.X, Y: ev.Y}
		switch strings.ToLower(ev.Type) {
		case "down":
			err = e.PointerDown(p)
		case "move":
			e.PointerMove(p)
		case "up":
			err = e.PointerUp()
		case "leave":
			err = e.PointerLeave()
		case "undo":
			_, err = e.Undo()
		case "redo":
			_, err = e.Redo()
		case "clear":
			err = e.Clear()
		case "tool":
			var cfg tools.Config
			cfg, err = toolFromEvent(e.Tool(), ev)
			if err == nil {
				e.SetTool(cfg)
			}
		default:
			err = fmt.Errorf("unknown event type %q", ev.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return e, nil
}

func toolFromEvent(cfg tools.Config, ev ScriptEvent) (tools.Config, error) {
	if ev.Tool != "" {
		tool, err := tools.ParseTool(ev.Tool)
		if err != nil {
			return cfg, err
		}
		cfg.Tool = tool
	}
	if ev.BrushSize > 0 {
		cfg.BrushSize = ev.BrushSize
	}
	if ev.Color != "" {
		c, err := tools.ParseColor(ev.Color)
		if err != nil {
			return cfg, err
		}
		cfg.Color = c
	}
	return cfg, nil
}

func renderScript(script *Script, thumbnail bool) (core.Snapshot, error) {
	e, err := replay(script)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap, err := e.Snapshot()
	if err != nil || !thumbnail {
		return snap, err
	}
	return canvas.Thumbnail(snap, canvas.ThumbnailWidth, canvas.ThumbnailHeight)
}
