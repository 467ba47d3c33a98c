// +build ignore

// This program generates the man pages under docs/. It can be invoked by
// running go generate.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/cpuguy83/go-md2man/v2/md2man"
)

var pages = map[string]string{
	"celpack.1": `# celpack(1)

## NAME

celpack - pack a cel-position file and its source sheet into CHR tiles and ca65 metasprite tables

## SYNOPSIS

celpack [flags] CEL-FILE IMAGE-FILE

## DESCRIPTION

celpack reads a cel-position DSL file describing named animation poses over
a source image, rasterizes each pose into 8x16 tiles, interns duplicate and
horizontally-flipped tiles, packs cels into fixed-size tile banks, and
emits a CHR tile sheet plus a ca65 assembly file of per-cel metasprite
tables.

## OPTIONS

**-chr** PATH
: output CHR file path (default: cel-position file with .chr extension)

**-asm** PATH
: output assembly file path (default: cel-position file with .s extension)

**-config** PATH
: YAML file of shared defaults

**-flip** PATH
: alternate pre-flipped image for left-facing cels

**-write-frame-numbers** PATH
: write a FRAME_xxx=nnn side file

**-prefix** STRING
: prefix of frametobank, mspraddrs, NUMFRAMES and NUMTILES symbols

**-segment** STRING
: ca65 segment in which to put metasprite maps

**-bank-size** N
: distinct tiles a bank may hold

**-intermediate**
: write intermediate debug images (boxing overlay and unique-tile sheet)
`,
	"celpackbatch.1": `# celpackbatch(1)

## NAME

celpackbatch - pack many cel-position/image pairs concurrently, skipping unchanged ones

## SYNOPSIS

celpackbatch [flags] FILE...

## DESCRIPTION

celpackbatch pairs up .cel files with same-stem image files from its
argument list and packs each pair with celpack's pipeline across a pool of
workers. When -cache-dir is set, a sqlite-backed digest of each job's
inputs and options is consulted so unchanged pairs are skipped.

## OPTIONS

**-config** PATH
: YAML file of shared defaults

**-cache-dir** PATH
: directory holding the sqlite build cache; empty disables caching

**-workers** N
: number of concurrent workers
`,
	"celbankctl.1": `# celbankctl(1)

## NAME

celbankctl - inspect a packed cel-position sheet without re-emitting it

## SYNOPSIS

celbankctl [global flags] COMMAND CEL-FILE IMAGE-FILE

## COMMANDS

**cels**
: list every cel, its aliases, hotspot and strip count

**banks**
: list each bank's cel sequence and tile occupancy

**tiles**
: report the total unique-tile count and per-bank occupancy

## OPTIONS

**-bank-size** N
: distinct tiles a bank may hold

**-config** PATH
: YAML file of shared defaults
`,
}

func main() {
	if err := os.MkdirAll("docs", 0o755); err != nil {
		log.Fatalf("MkdirAll docs failed: %v", err)
	}
	for name, markdown := range pages {
		out := md2man.Render([]byte(markdown))
		path := filepath.Join("docs", name)
		if err := os.WriteFile(path, out, 0o644); err != nil {
			log.Fatalf("writing %q failed: %v", path, err)
		}
	}
}
