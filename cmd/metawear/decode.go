package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/kenyoneda/MultiMetaWear/pkg/advdata"
	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

func decodeCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("😕 decode expects exactly one hex payload", 1)
	}
	return decode(current.out, c.Args().First(), c.StringSlice("service"))
}

// decode prints every record of a hex payload, the services it advertises
// and, when services are given, whether a scan for them would accept it.
func decode(out io.Writer, s string, services []string) error {
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	payload, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "payload is not hex")
	}

	filter, err := scanner.ParseFilterSet(services)
	if err != nil {
		return err
	}

	records := advdata.Structures(payload)
	fmt.Fprintf(out, "📦 %d bytes, %d records\n", len(payload), len(records))
	used := 0
	for _, r := range records {
		fmt.Fprintf(out, "  %s\n", r)
		used += len(r.Value) + 2
	}
	if used < len(payload) {
		fmt.Fprintf(out, "  ✂️ %d trailing bytes ignored [% x]\n", len(payload)-used, payload[used:])
	}

	ids := advdata.Services(payload, nil)
	if len(ids) == 0 {
		fmt.Fprintln(out, "🧩 No services")
	} else {
		fmt.Fprintln(out, "🧩 Services:")
		for _, id := range ids {
			fmt.Fprintf(out, "  %s\n", bleuuid.Format(id))
		}
	}

	if name := advdata.LocalName(payload); name != "" {
		fmt.Fprintf(out, "🏷️ Name: %s\n", name)
	}

	if !filter.Empty() {
		verdict := "❌ rejected"
		if id, ok := advdata.FirstService(payload, filter.Contains); ok {
			verdict = "✅ accepted via " + bleuuid.Format(id)
		}
		fmt.Fprintf(out, "🎯 Filter %s: %s\n", filter, verdict)
	}
	return nil
}
