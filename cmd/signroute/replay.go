package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/signroute/internal/classifier"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/pipeline"
)

// maxLineSize bounds one recorded frame; two hands fit well inside.
const maxLineSize = 1 << 20

// replayDecision is a change of the stabilized label during a replay.
type replayDecision struct {
	Frame      int
	Label      string
	Confidence float32
}

// replaySummary counts how every frame of a session ended.
type replaySummary struct {
	Frames    int
	Reasons   map[pipeline.Reason]int
	Failed    []int // frames that could not be decoded or processed
	Decisions []replayDecision
}

func newReplayCmd(c *cli) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "replay <session.jsonl>",
		Short: "Feed a recorded landmark session through a fresh pipeline",
		Long: "Replay reads one {\"hands\": [...]} document per line and prints every\n" +
			"change of the stabilized sign. Use - to read standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := classifier.Load(c.cfg.ModelPath, c.cfg.LabelsPath)
			if err != nil {
				return fmt.Errorf("load classifier: %w", err)
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open session: %w", err)
				}
				defer f.Close()
				in = f
			}

			progress := cmd.ErrOrStderr()
			if quiet {
				progress = io.Discard
			}

			summary, err := replay(in, cls, cmd.OutOrStdout(), progress)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

// replay runs every frame in r through a new pipeline, writing label changes
// to out as they happen. A frame that fails is reported and skipped. As in
// live history, a frame without hands lets the same label be reported again.
func replay(r io.Reader, cls pipeline.Classifier, out, progress io.Writer) (replaySummary, error) {
	summary := replaySummary{Reasons: make(map[pipeline.Reason]int)}

	lines, err := readLines(r)
	if err != nil {
		return summary, err
	}

	p, err := pipeline.New(detector.NewMockDetector(), cls)
	if err != nil {
		return summary, err
	}

	bar := progressbar.NewOptions(len(lines),
		progressbar.OptionSetDescription("replay"),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowCount(),
	)

	last := ""
	for i, line := range lines {
		frame := i + 1

		summary.Frames++
		bar.Add(1)

		pred, err := replayFrame(p, line)
		if err != nil {
			summary.Failed = append(summary.Failed, frame)
			fmt.Fprintf(out, "frame %d: skipped: %v\n", frame, err)
			continue
		}

		summary.Reasons[pred.Reason]++
		if pred.Reason == pipeline.ReasonNoHands {
			last = ""
		}
		if pred.Decided() && pred.Label != last {
			last = pred.Label
			d := replayDecision{Frame: frame, Label: pred.Label, Confidence: pred.Confidence}
			summary.Decisions = append(summary.Decisions, d)
			fmt.Fprintf(out, "frame %d: %s (%.0f%%)\n", d.Frame, d.Label, d.Confidence*100)
		}
	}
	bar.Finish()
	fmt.Fprintln(progress)

	return summary, nil
}

func replayFrame(p *pipeline.Pipeline, line []byte) (pipeline.Prediction, error) {
	hands, err := detector.DecodeHands(line)
	if err != nil {
		return pipeline.Prediction{}, err
	}
	return p.ProcessHands(hands)
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([][]byte, error) {
	var lines [][]byte

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return lines, nil
}

func printSummary(w io.Writer, s replaySummary) {
	fmt.Fprintf(w, "%d frames: %d decided, %d no majority, %d low confidence, %d without hands, %d failed\n",
		s.Frames,
		s.Reasons[pipeline.ReasonDecided],
		s.Reasons[pipeline.ReasonNoMajority],
		s.Reasons[pipeline.ReasonLowConfidence],
		s.Reasons[pipeline.ReasonNoHands],
		len(s.Failed),
	)
}
