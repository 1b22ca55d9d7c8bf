// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/pdfget"
	"github.com/pdiddy/review-engine/pkg/types"
)

var pdfsCmd = &cobra.Command{
	Use:   "pdfs",
	Short: "Acquire PDFs for prescreen-included records",
	Long: `Pdfs links PDFs already present in the pdf directory (named <ID>.pdf)
and downloads open access copies via Unpaywall for the rest. Records
left without a PDF are listed in missing_pdf_files.csv for manual
retrieval.

When a container runtime with the hash image is available, each linked
PDF is fingerprinted so swapped files are detectable later.`,
	RunE: runPDFs,
}

func runPDFs(cmd *cobra.Command, args []string) error {
	p, err := openProject(true)
	if err != nil {
		return err
	}
	defer p.log.Close()

	if err := p.checkPrecondition(types.OpPDFGet); err != nil {
		return err
	}

	hasher, err := pdfget.NewHasher(p.cfg.PDF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdf fingerprinting disabled: %v\n", err)
		hasher = nil
	}

	getter := pdfget.New(p.cfg.PDF, p.log, hasher)
	summary, err := getter.Run(context.Background(), p.ds, p.cfg.Project.PDFDir)
	if err != nil {
		return err
	}
	p.log.Infof("pdfs: %d linked, %d downloaded, %d missing",
		summary.Linked, summary.Downloaded, summary.Missing)
	if summary.Missing > 0 {
		fmt.Printf("see %s/%s for the records to retrieve manually\n",
			p.cfg.Project.PDFDir, pdfget.MissingPDFFile)
	}

	var extra []string
	if p.cfg.Git.TrackPDFs {
		extra = append(extra, p.cfg.Project.PDFDir)
	}
	return p.commit(
		fmt.Sprintf("Retrieve PDFs (%d linked, %d downloaded)", summary.Linked, summary.Downloaded),
		"pdfs", false, extra...)
}

func init() {
	rootCmd.AddCommand(pdfsCmd)
}
