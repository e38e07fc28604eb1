package llm

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/weaviate/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var defaultCounter = newTokenCounter(tokenCacheDir())

// CountTokens estimates the prompt size of messages with the cl100k_base encoding.
// The encoding is only read from the local tiktoken cache (TIKTOKEN_CACHE_DIR); when it
// is not there the estimate is four characters per token. It never touches the network.
func CountTokens(messages []Message) int {
	return defaultCounter.count(messages)
}

type tokenCounter struct {
	dir  string
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func newTokenCounter(dir string) *tokenCounter {
	return &tokenCounter{dir: dir}
}

func (c *tokenCounter) count(messages []Message) int {
	c.once.Do(func() {
		tiktoken.SetBpeLoader(cacheOnlyLoader{dir: c.dir})
		if enc, err := tiktoken.GetEncoding(tokenEncoding); err == nil {
			c.enc = enc
		}
	})

	total := 0
	for _, m := range messages {
		if c.enc != nil {
			total += len(c.enc.Encode(m.Content, nil, nil))
		} else {
			total += (len(m.Content) + 3) / 4
		}
	}
	return total
}

// cacheOnlyLoader reads BPE ranks from the cache layout tiktoken uses for downloads
// (file named by the SHA-1 of the source URL) and fails instead of fetching.
type cacheOnlyLoader struct {
	dir string
}

func (l cacheOnlyLoader) LoadTiktokenBpe(source string) (map[string]int, error) {
	if l.dir == "" {
		return nil, fmt.Errorf("no tiktoken cache directory")
	}
	data, err := os.ReadFile(filepath.Join(l.dir, fmt.Sprintf("%x", sha1.Sum([]byte(source)))))
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int)
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		token, rank, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("malformed BPE line %q", line)
		}
		decoded, err := base64.StdEncoding.DecodeString(token)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(rank)
		if err != nil {
			return nil, err
		}
		ranks[string(decoded)] = n
	}
	return ranks, nil
}

func tokenCacheDir() string {
	if dir := os.Getenv("TIKTOKEN_CACHE_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "data-gym-cache")
}
