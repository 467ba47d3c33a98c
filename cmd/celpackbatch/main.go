package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/retrobank/celpack"
)

var (
	help       bool
	configPath string
	cacheDir   string
	numWorkers int
	quiet      bool
	verbose    bool
)

func main() {
	t0 := time.Now()
	baseOpt := initAndParseFlags()
	filenames := flag.Args()

	if help {
		printUsage()
		return
	}
	if len(filenames) == 0 {
		printUsage()
		return
	}

	var cache *celpack.BuildCache
	if baseOpt.CacheDir != "" {
		if err := os.MkdirAll(baseOpt.CacheDir, 0o755); err != nil {
			log.Fatalf("MkdirAll %q failed: %v", baseOpt.CacheDir, err)
		}
		var err error
		cache, err = celpack.OpenBuildCache(filepath.Join(baseOpt.CacheDir, "celpackbatch.db"))
		if err != nil {
			log.Fatalf("OpenBuildCache failed: %v", err)
		}
		defer cache.Close()
	}

	jobs := pairUp(filenames)
	if len(jobs) == 0 {
		log.Fatal("no .cel/image pairs found; pass each .cel file together with a same-stem image file")
	}

	wg := &sync.WaitGroup{}
	queue := make(chan job, numWorkers)
	var converted, skipped, failed int
	var mu sync.Mutex

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go worker(i, wg, baseOpt, cache, queue, &mu, &converted, &skipped, &failed)
	}
	for _, j := range jobs {
		queue <- j
	}
	close(queue)
	wg.Wait()

	if !baseOpt.Quiet {
		fmt.Printf("celpackbatch: converted %d, skipped %d (cached), failed %d\n", converted, skipped, failed)
		fmt.Printf("elapsed: %v\n", time.Since(t0))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

type job struct {
	celPath   string
	imagePath string
}

// pairUp matches each .cel file in filenames against a same-stem image file
// (.png preferred, falling back to any other extension present), mirroring
// the single-binary's positional cel/image pairing but across a whole batch.
func pairUp(filenames []string) []job {
	byStem := make(map[string]string)
	var cels []string
	for _, f := range filenames {
		ext := strings.ToLower(filepath.Ext(f))
		stem := strings.TrimSuffix(f, filepath.Ext(f))
		if ext == ".cel" || ext == ".txt" {
			cels = append(cels, f)
			continue
		}
		if prev, ok := byStem[stem]; ok && strings.ToLower(filepath.Ext(prev)) == ".png" {
			continue
		}
		byStem[stem] = f
	}
	var jobs []job
	for _, c := range cels {
		stem := strings.TrimSuffix(c, filepath.Ext(c))
		if img, ok := byStem[stem]; ok {
			jobs = append(jobs, job{celPath: c, imagePath: img})
		} else {
			log.Printf("no matching image for %q, skipping", c)
		}
	}
	return jobs
}

func worker(id int, wg *sync.WaitGroup, baseOpt celpack.Options, cache *celpack.BuildCache, queue <-chan job, mu *sync.Mutex, converted, skipped, failed *int) {
	defer wg.Done()
	for j := range queue {
		opt := baseOpt
		outCHR := replaceExt(j.celPath, ".chr")
		outASM := replaceExt(j.celPath, ".s")

		var digest string
		if cache != nil {
			var err error
			digest, err = celpack.JobDigest(j.celPath, j.imagePath, opt)
			if err != nil {
				log.Printf("worker %d: JobDigest %q failed: %v", id, j.celPath, err)
				mu.Lock()
				*failed++
				mu.Unlock()
				continue
			}
			if fresh, err := cache.Fresh(digest, outASM); err == nil && fresh {
				if !opt.Quiet {
					fmt.Printf("worker %d: %q unchanged, skipping\n", id, j.celPath)
				}
				mu.Lock()
				*skipped++
				mu.Unlock()
				continue
			}
		}

		if err := convertOne(opt, j, outCHR, outASM); err != nil {
			log.Printf("worker %d: convert %q failed: %v", id, j.celPath, err)
			mu.Lock()
			*failed++
			mu.Unlock()
			continue
		}
		if cache != nil {
			if err := cache.Record(digest, outASM); err != nil {
				log.Printf("worker %d: Record %q failed: %v", id, outASM, err)
			}
		}
		if !opt.Quiet {
			fmt.Printf("worker %d: converted %q -> %q, %q\n", id, j.celPath, outCHR, outASM)
		}
		mu.Lock()
		*converted++
		mu.Unlock()
	}
}

func convertOne(opt celpack.Options, j job, outCHR, outASM string) error {
	c, err := celpack.NewFromPath(opt, j.celPath, j.imagePath)
	if err != nil {
		return err
	}
	chrFile, err := os.Create(outCHR)
	if err != nil {
		return err
	}
	defer chrFile.Close()
	if _, err := c.WriteCHR(chrFile); err != nil {
		return err
	}
	asmFile, err := os.Create(outASM)
	if err != nil {
		return err
	}
	defer asmFile.Close()
	_, err = c.WriteASM(asmFile, j.celPath, j.imagePath)
	return err
}

func replaceExt(path, newExt string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + newExt
}

func printUsage() {
	fmt.Println("celpackbatch [flags] <cel-or-image-file> ...")
	fmt.Println("  pass the .cel files and their matching images together; celpackbatch pairs them up by filename stem")
	flag.PrintDefaults()
}

func initAndParseFlags() celpack.Options {
	flag.BoolVar(&help, "h", false, "help")
	flag.BoolVar(&help, "help", false, "help")
	flag.StringVar(&configPath, "config", "", "YAML file of shared defaults")
	flag.StringVar(&cacheDir, "cache-dir", "", "directory holding the sqlite build cache; empty disables caching")
	flag.IntVar(&numWorkers, "w", 4, "workers")
	flag.IntVar(&numWorkers, "workers", 4, "number of concurrent workers")
	flag.BoolVar(&quiet, "q", false, "quiet")
	flag.BoolVar(&quiet, "quiet", false, "quiet, only display errors")
	flag.BoolVar(&verbose, "v", false, "verbose")
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.Parse()

	if numWorkers < 1 {
		log.Printf("warning: minimum amount of workers is 1, not %d\n", numWorkers)
		numWorkers = 1
	}

	opt, err := celpack.LoadConfigFile(configPath)
	if err != nil {
		log.Fatalf("LoadConfigFile failed: %v", err)
	}
	flagOpt := celpack.Options{
		CacheDir: cacheDir,
		Quiet:    quiet,
		Verbose:  verbose,
	}
	merged := flagOpt.Merge(opt)
	return merged
}
