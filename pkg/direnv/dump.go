package direnv

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// Dump encodes an env map in the format direnv's DIRENV_DUMP_FILE
// protocol expects: zlib-compressed json, url-safe base64.
func Dump(obj map[string]string) string {
	jsonData, err := json.Marshal(obj)
	if err != nil {
		panic(fmt.Errorf("marshal(): %w", err))
	}

	zlibData := bytes.NewBuffer([]byte{})
	w := zlib.NewWriter(zlibData)
	// we assume the zlib writer would never fail
	_, _ = w.Write(jsonData)
	w.Close()

	return base64.URLEncoding.EncodeToString(zlibData.Bytes())
}

// Parse decodes a dump back into an env map.
func Parse(encoded string) (map[string]string, error) {
	zlibData, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	r, err := zlib.NewReader(bytes.NewReader(zlibData))
	if err != nil {
		return nil, err
	}

	defer r.Close()

	jsonData, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var obj map[string]string

	err = json.Unmarshal(jsonData, &obj)
	if err != nil {
		return nil, err
	}

	return obj, nil
}
