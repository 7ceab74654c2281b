package cli

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/fmueller/meetnotes/internal/media"
	"github.com/fmueller/meetnotes/internal/pipeline"
	"github.com/fmueller/meetnotes/internal/report"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const uploadField = "file"

type summarizeResponse struct {
	RequestID     string `json:"request_id"`
	Source        string `json:"source"`
	Transcript    string `json:"transcript"`
	Summary       string `json:"summary"`
	SummaryFailed bool   `json:"summary_failed"`
	Report        string `json:"report"`
	ReportName    string `json:"report_name"`
}

type errorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
}

func newServeCmd(app *appState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a minimal upload form that summarizes one recording per request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				app.cfg.Serve.Addr = addr
			}
			return app.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: serve.addr from the config, 127.0.0.1:8080)")
	return cmd
}

func (a *appState) runServe(ctx context.Context) error {
	preflightFn := a.preflightFn
	if preflightFn == nil {
		preflightFn = a.ensureReady
	}
	pipelineFn := a.pipelineFn
	if pipelineFn == nil {
		pipelineFn = a.newPipeline
	}
	if err := preflightFn(ctx, true); err != nil {
		return err
	}
	p, err := pipelineFn(ctx, nil)
	if err != nil {
		return err
	}

	server := a.newServer(p)
	errCh := make(chan error, 1)
	go func() {
		a.log().Info("serving upload form", zap.String("addr", a.cfg.Serve.Addr))
		errCh <- server.Listen(a.cfg.Serve.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.log().Info("shutting down")
		return server.Shutdown()
	}
}

// newServer builds the HTTP surface. Requests are handled one at a time since
// the speech engine runs a single model per process.
func (a *appState) newServer(p *pipeline.Pipeline) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               "meetnotes",
		BodyLimit:             a.cfg.Serve.MaxUploadMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	var mu sync.Mutex

	server.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(fmt.Sprintf(uploadForm, a.cfg.Serve.MaxUploadMB))
	})

	server.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	server.Post("/api/summarize", func(c *fiber.Ctx) error {
		requestID := uuid.NewString()
		log := a.log().With(zap.String("request_id", requestID))

		header, err := c.FormFile(uploadField)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
				RequestID: requestID,
				Error:     "multipart field `file` is required",
			})
		}

		blob, err := readUpload(header)
		if err != nil {
			log.Warn("failed to read upload", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{RequestID: requestID, Error: "could not read upload"})
		}
		log.Info("upload received", zap.String("audio", blob.SourceID()), zap.Int("bytes", len(blob.Data)))

		mu.Lock()
		res, err := p.Run(c.UserContext(), blob)
		mu.Unlock()
		if err != nil {
			kind := pipeline.KindOf(err)
			log.Error("processing failed", zap.Stringer("kind", kind), zap.Error(err))
			return c.Status(statusFor(kind)).JSON(errorResponse{
				RequestID: requestID,
				Error:     err.Error(),
				Kind:      kind.String(),
			})
		}

		return c.JSON(summarizeResponse{
			RequestID:     requestID,
			Source:        res.Report.SourceID,
			Transcript:    res.Report.Transcript,
			Summary:       res.Report.Summary,
			SummaryFailed: res.Report.SummaryFailed,
			Report:        res.Report.String(),
			ReportName:    report.ReportName(res.Report),
		})
	})

	return server
}

func readUpload(header *multipart.FileHeader) (media.Blob, error) {
	f, err := header.Open()
	if err != nil {
		return media.Blob{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Blob{}, err
	}
	return media.Blob{Data: data, Name: filepath.Base(header.Filename)}, nil
}

func statusFor(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindInputValidation, pipeline.KindTranscription:
		return http.StatusUnprocessableEntity
	case pipeline.KindSummarization:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

const uploadForm = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>meetnotes</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
pre { white-space: pre-wrap; background: #f5f5f5; padding: 1rem; }
</style>
</head>
<body>
<h1>Meeting summarizer</h1>
<p>Upload a recording (WAV, MP3, M4A, FLAC, OGG; up to %d MB). It is transcribed locally and summarized as bullet points.</p>
<form id="upload">
<input type="file" name="file" accept="audio/*" required>
<button type="submit">Process audio</button>
</form>
<p id="status"></p>
<h2>Summary</h2>
<pre id="summary"></pre>
<h2>Transcript</h2>
<pre id="transcript"></pre>
<p><a id="download" hidden>Download report</a></p>
<script>
document.getElementById("upload").addEventListener("submit", async (ev) => {
  ev.preventDefault();
  const status = document.getElementById("status");
  status.textContent = "Processing... this can take a few minutes.";
  const resp = await fetch("/api/summarize", { method: "POST", body: new FormData(ev.target) });
  const body = await resp.json();
  if (!resp.ok) {
    status.textContent = "Error: " + body.error;
    return;
  }
  status.textContent = body.summary_failed ? "Transcribed, but the summary failed." : "Done.";
  document.getElementById("summary").textContent = body.summary;
  document.getElementById("transcript").textContent = body.transcript;
  const link = document.getElementById("download");
  link.href = URL.createObjectURL(new Blob([body.report], { type: "text/plain" }));
  link.download = body.report_name;
  link.hidden = false;
});
</script>
</body>
</html>
`
