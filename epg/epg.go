package epg

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"epg-combiner/logger"

	"golang.org/x/net/html/charset"
)

// TV is the combined guide. Only programme elements are carried over.
type TV struct {
	XMLName    xml.Name     `xml:"tv"`
	Programmes []*Programme `xml:"programme"`
}

// Programme keeps an element exactly as the feed shipped it: attributes plus raw inner XML.
type Programme struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

// feedDoc accepts any root element name.
type feedDoc struct {
	XMLName    xml.Name
	Programmes []*Programme `xml:"programme"`
}

// Combine merges the programmes of every input into output, in input order then document order.
// With no inputs nothing is written and "" is returned.
func Combine(inputs []string, output string) (string, error) {
	if len(inputs) == 0 {
		logger.L().Warn("epg.no_input", "msg", "no XML files found")
		return "", nil
	}

	res := &TV{}
	for _, input := range inputs {
		programmes, err := ReadProgrammes(input)
		if err != nil {
			return "", err
		}
		res.Programmes = append(res.Programmes, programmes...)
		logger.L().Debug("epg.read", "path", input, "programmes", len(programmes))
	}

	if err := Write(res, output); err != nil {
		return "", err
	}
	logger.L().Info("epg.combined", "path", output, "inputs", len(inputs), "programmes", len(res.Programmes))
	return output, nil
}

// ReadProgrammes returns the top-level programme elements of an XMLTV file.
func ReadProgrammes(path string) ([]*Programme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := xml.NewDecoder(bufio.NewReader(f))
	dec.CharsetReader = charset.NewReaderLabel

	var doc feedDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := checkTrailer(dec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Programmes, nil
}

// checkTrailer consumes the rest of the document. Only whitespace, comments
// and processing instructions may follow the root element.
func checkTrailer(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("unexpected text after root element")
			}
		}
	}
}

// Write stores tv with an XML declaration, via a temp file renamed into place.
func Write(tv *TV, path string) error {
	tempFile := path + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(xml.Header); err != nil {
		f.Close()
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(tv); err != nil {
		f.Close()
		os.Remove(tempFile)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tempFile, path); err != nil {
		logger.L().Error("epg.rename_failed", "path", path, "err", err)
		return err
	}
	return nil
}
