package sumfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"

	"github.com/mr-tron/base58"
)

// Sumfile records content hashes keyed by ref, one per line in the
// form "algo:base58sum ref". Used to notice when a synced catalog's
// index changed since the last sync.
type Sumfile struct {
	sums map[string]sum
}

type sum struct {
	algo string
	hash []byte
}

func (s *Sumfile) Load(r io.Reader) error {
	if s.sums == nil {
		s.sums = make(map[string]sum)
	}

	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}

			return err
		}

		colon := bytes.IndexByte(line, ':')
		space := bytes.IndexByte(line, ' ')

		if colon == -1 || space == -1 || colon > space {
			continue
		}

		hash, err := base58.Decode(string(line[colon+1 : space]))
		if err != nil {
			return err
		}

		ref := string(bytes.TrimSpace(line[space+1:]))

		s.sums[ref] = sum{
			algo: string(line[:colon]),
			hash: hash,
		}
	}

	return nil
}

// Add records the hash for ref, replacing any previous value. It
// returns the printable form of the sum.
func (s *Sumfile) Add(ref, algo string, h []byte) string {
	if s.sums == nil {
		s.sums = make(map[string]sum)
	}

	s.sums[ref] = sum{algo: algo, hash: h}

	return algo + ":" + base58.Encode(h)
}

func (s *Sumfile) Lookup(ref string) (string, []byte, bool) {
	e, ok := s.sums[ref]
	if !ok {
		return "", nil, false
	}

	return e.algo, e.hash, true
}

// Changed reports whether ref has a recorded sum that differs from h.
// Unknown refs aren't changes, just new.
func (s *Sumfile) Changed(ref, algo string, h []byte) bool {
	e, ok := s.sums[ref]
	if !ok {
		return false
	}

	return e.algo != algo || !bytes.Equal(e.hash, h)
}

func (s *Sumfile) Save(w io.Writer) error {
	refs := make([]string, 0, len(s.sums))

	for ref := range s.sums {
		refs = append(refs, ref)
	}

	sort.Strings(refs)

	for _, ref := range refs {
		e := s.sums[ref]

		_, err := fmt.Fprintf(w, "%s:%s %s\n", e.algo, base58.Encode(e.hash), ref)
		if err != nil {
			return err
		}
	}

	return nil
}

// LoadFile populates the sumfile from path. A missing file loads
// empty.
func LoadFile(path string) (*Sumfile, error) {
	var sf Sumfile

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &sf, nil
		}

		return nil, err
	}

	defer f.Close()

	err = sf.Load(f)
	if err != nil {
		return nil, err
	}

	return &sf, nil
}

func (s *Sumfile) SaveFile(path string) error {
	var buf bytes.Buffer

	err := s.Save(&buf)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(path, buf.Bytes(), 0644)
}
