// Command warcrecord fetches a single URL and writes it to a WARC file,
// exercising the root warc package's writer against a live HTTP exchange.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	webarchive "github.com/fairuse/webarchive"
)

var log = logrus.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Fatal("warcrecord failed")
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "warcrecord <url>",
		Short: "Fetch a URL and append it to a WARC file as a response/request pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd.Context(), v, args[0])
		},
	}

	cmd.Flags().StringP("output", "o", "capture.warc.gz", "WARC file to append to")
	cmd.Flags().String("collection", "warcrecord-demo", "WARC-Warcinfo collection label")
	cmd.Flags().String("robots", "obey", "robots policy recorded in the warcinfo record")
	cmd.Flags().Bool("verbose", false, "enable debug logging")

	_ = v.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = v.BindPFlag("collection", cmd.Flags().Lookup("collection"))
	_ = v.BindPFlag("robots", cmd.Flags().Lookup("robots"))
	_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	v.SetEnvPrefix("WARCRECORD")
	v.AutomaticEnv()

	return cmd
}

func runCapture(ctx context.Context, v *viper.Viper, targetURL string) error {
	if v.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}

	outputPath := v.GetString("output")
	log.WithFields(logrus.Fields{"url": targetURL, "output": outputPath}).Info("fetching")

	resp, ex, err := fetch(ctx, targetURL)
	if err != nil {
		return err
	}
	log.WithField("status", resp.StatusCode).Debug("fetch complete")

	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("warcrecord: open %s: %w", outputPath, err)
	}
	defer f.Close()

	writer := webarchive.NewWriter(f)

	if _, err := writer.WriteWarcinfo(outputPath, "warcrecord/0.1", v.GetString("collection"), v.GetString("robots")); err != nil {
		return fmt.Errorf("warcrecord: write warcinfo: %w", err)
	}

	// ex.resp / ex.req already hold the exact bytes net/http put on the
	// wire — status line, headers and body for the response; request line,
	// headers and (empty) body for the GET. A WARC response/request
	// record's content block IS that raw message, so it is used verbatim
	// rather than reconstructed from the parsed *http.Response.
	now := time.Now().UTC()

	responseID, err := writeRawRecord(writer, webarchive.TypeResponse, targetURL, now, "", ex.resp.Bytes())
	if err != nil {
		return fmt.Errorf("warcrecord: write response record: %w", err)
	}

	requestID, err := writeRawRecord(writer, webarchive.TypeRequest, targetURL, now, responseID, ex.req.Bytes())
	if err != nil {
		return fmt.Errorf("warcrecord: write request record: %w", err)
	}

	log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"response_id": responseID,
		"request_id":  requestID,
	}).Info("recorded")

	return nil
}

// writeRawRecord wraps the raw HTTP message payload in a WARC record of the
// given type, wiring WARC-Concurrent-To to concurrentTo when non-empty (the
// request record pointing back at its response, per the pairing invariant).
func writeRawRecord(writer *webarchive.Writer, recordType webarchive.Type, targetURL string, date time.Time, concurrentTo string, payload []byte) (string, error) {
	rec := webarchive.NewRecord()
	id := webarchive.NewRecordID()
	rec.Header.Set("WARC-Type", string(recordType))
	rec.Header.Set("WARC-Record-ID", "<"+id+">")
	rec.Header.Set("WARC-Target-URI", targetURL)
	rec.Header.Set("WARC-Date", date.Format(time.RFC3339))
	rec.Header.Set("WARC-Payload-Digest", webarchive.PayloadDigest(payload))
	if concurrentTo != "" {
		rec.Header.Set("WARC-Concurrent-To", "<"+concurrentTo+">")
	}
	if recordType == webarchive.TypeResponse {
		rec.Header.Set("Content-Type", "application/http; msgtype=response")
	} else {
		rec.Header.Set("Content-Type", "application/http; msgtype=request")
	}
	rec.Content = payload

	if _, _, err := writer.WriteRecord(rec); err != nil {
		return "", err
	}
	return id, nil
}
