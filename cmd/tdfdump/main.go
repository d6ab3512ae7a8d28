// tdfdump reads framed packets from a capture file (or stdin) and
// prints each frame's header and decoded body. Component and command
// ids resolve to names when a TOML component table is supplied.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/rmassey/blazetdf/packet"
	"github.com/rmassey/blazetdf/registry"
)

func main() {
	var (
		inPath     = flag.String("in", "-", "capture file to read, - for stdin")
		tablePath  = flag.String("components", "", "TOML component table for name resolution")
		rawBodies  = flag.Bool("raw", false, "print body bytes as hex instead of decoding")
		debugLevel = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*debugLevel {
		log = log.Level(zerolog.InfoLevel)
	}

	reg := registry.NewRegistry()
	if *tablePath != "" {
		if err := reg.LoadTOML(*tablePath); err != nil {
			log.Fatal().Err(err).Str("path", *tablePath).Msg("failed to load component table")
		}
		log.Debug().Int("components", len(reg.Components())).Msg("component table loaded")
	}

	in := os.Stdin
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *inPath).Msg("failed to open capture")
		}
		defer f.Close()
		in = f
	}

	if err := dump(in, os.Stdout, reg, *rawBodies, log); err != nil {
		log.Fatal().Err(err).Msg("dump failed")
	}
}

func dump(in io.Reader, out io.Writer, reg *registry.Registry, raw bool, log zerolog.Logger) error {
	for n := 0; ; n++ {
		p, err := packet.Read(in)
		if errors.Is(err, io.EOF) {
			log.Debug().Int("frames", n).Msg("capture exhausted")
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}

		printHeader(out, n, p, reg)

		if raw {
			fmt.Fprintf(out, "  body: %x\n", p.Body)
			continue
		}

		body, err := p.DecodeBody()
		if err != nil {
			log.Warn().Err(err).Int("frame", n).Msg("body did not decode, falling back to hex")
			fmt.Fprintf(out, "  body: %x\n", p.Body)
			continue
		}
		for _, f := range body.Fields {
			fmt.Fprintf(out, "  %s: %s = %s\n", f.Label, f.Type, formatValue(f.Value))
		}
	}
}

func printHeader(out io.Writer, n int, p *packet.Packet, reg *registry.Registry) {
	component := reg.ComponentName(p.Component)
	command := reg.CommandName(p.Component, p.Command, p.Kind == packet.KindNotify)

	fmt.Fprintf(out, "#%d %s %s/%s id=%d", n, p.Kind, component, command, p.ID)
	if p.Error != 0 {
		fmt.Fprintf(out, " error=0x%04X", p.Error)
	}
	fmt.Fprintf(out, " (%d byte body)\n", len(p.Body))
}
