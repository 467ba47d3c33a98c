package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/retrobank/celpack"
)

var (
	help        bool
	outCHR      string
	outASM      string
	configPath  string
	flipPath    string
	frameNumOut string
	prefix      string
	segment     string
	bankSize    int
	intermediate bool
)

func main() {
	opt := initAndParseFlags()
	args := flag.Args()
	if help || len(args) < 2 {
		printUsage()
		return
	}
	celPath, imagePath := args[0], args[1]

	if outCHR == "" && len(args) > 2 {
		outCHR = args[2]
	}
	if outASM == "" && len(args) > 3 {
		outASM = args[3]
	}
	if outCHR == "" {
		outCHR = replaceExt(celPath, ".chr")
	}
	if outASM == "" {
		outASM = replaceExt(celPath, ".s")
	}

	c, err := celpack.NewFromPath(opt, celPath, imagePath)
	if err != nil {
		log.Fatalf("NewFromPath failed: %v", err)
	}

	if err := writeFile(outCHR, c.WriteCHR); err != nil {
		log.Fatalf("writing %q failed: %v", outCHR, err)
	}
	if err := writeFile(outASM, func(w io.Writer) (int64, error) {
		return c.WriteASM(w, celPath, imagePath)
	}); err != nil {
		log.Fatalf("writing %q failed: %v", outASM, err)
	}
	if frameNumOut != "" {
		if err := writeFile(frameNumOut, c.WriteFrameNumbers); err != nil {
			log.Fatalf("writing %q failed: %v", frameNumOut, err)
		}
	}
	if intermediate {
		if err := writeIntermediate(c, celPath); err != nil {
			log.Fatalf("writing intermediate images failed: %v", err)
		}
	}

	if !opt.Quiet {
		fmt.Printf("celpack: wrote %q and %q\n", outCHR, outASM)
	}
}

func writeFile(path string, fn func(io.Writer) (int64, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fn(f)
	return err
}

func writeIntermediate(c *celpack.Converter, celPath string) error {
	boxing := replaceExt(celPath, "-boxing.png")
	if err := writeFile(boxing, func(w io.Writer) (int64, error) {
		return 0, c.WriteBoxingImage(w)
	}); err != nil {
		return err
	}
	tiles := replaceExt(celPath, "-uniquetiles.gif")
	return writeFile(tiles, func(w io.Writer) (int64, error) {
		return 0, c.WriteUniqueTilesImage(w, 16)
	})
}

func replaceExt(path, newExt string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + newExt
}

func printUsage() {
	fmt.Println("celpack <cel-position-file> <image-file> [chr-file] [asm-file]")
	flag.PrintDefaults()
}

func initAndParseFlags() celpack.Options {
	flag.BoolVar(&help, "h", false, "help")
	flag.BoolVar(&help, "help", false, "help")
	flag.StringVar(&outCHR, "chr", "", "output CHR file path (default: cel-position file with .chr extension)")
	flag.StringVar(&outASM, "asm", "", "output assembly file path (default: cel-position file with .s extension)")
	flag.StringVar(&configPath, "config", "", "YAML file of shared defaults")
	flag.StringVar(&flipPath, "flip", "", "alternate pre-flipped image for left-facing cels")
	flag.StringVar(&frameNumOut, "write-frame-numbers", "", "write FRAME_xxx=nnn side file")
	flag.StringVar(&prefix, "prefix", "", "prefix of frametobank, mspraddrs, NUMFRAMES and NUMTILES symbols")
	flag.StringVar(&segment, "segment", "", "ca65 segment in which to put metasprite maps")
	flag.IntVar(&bankSize, "bank-size", 0, "distinct tiles a bank may hold")
	flag.BoolVar(&intermediate, "d", false, "write intermediate debug images")
	flag.BoolVar(&intermediate, "intermediate", false, "write intermediate debug images")

	var quiet, verbose bool
	flag.BoolVar(&quiet, "q", false, "quiet")
	flag.BoolVar(&quiet, "quiet", false, "quiet, only display errors")
	flag.BoolVar(&verbose, "v", false, "verbose")
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.Parse()

	opt, err := celpack.LoadConfigFile(configPath)
	if err != nil {
		log.Fatalf("LoadConfigFile failed: %v", err)
	}
	flagOpt := celpack.Options{
		BankSize:      bankSize,
		Segment:       segment,
		Prefix:        prefix,
		FlipImagePath: flipPath,
		Quiet:         quiet,
		Verbose:       verbose,
		Intermediate:  intermediate,
	}
	return flagOpt.Merge(opt)
}
