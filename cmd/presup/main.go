package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"presup/internal"
	"presup/internal/catalog"
	"presup/internal/config"
	"presup/internal/connectors"
	gmailconnector "presup/internal/connectors/gmail"
	imapconnector "presup/internal/connectors/imap"
	"presup/internal/listener"
	"presup/internal/logging"
	"presup/internal/quote"
	"presup/internal/storage"
	"presup/internal/tariff"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(logging.Setup(cfg.LogLevel))

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "catalog file (.xlsx .xls .csv .html)")
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		data, err := os.ReadFile(*file)
		must(err)
		ingestor := catalog.NewIngestor(db)
		result, err := ingestor.Ingest(*owner, filepath.Base(*file), data)
		must(err)
		fmt.Println(result.Message)
		for _, line := range result.ErrorStrings() {
			fmt.Println("  " + line)
		}
	case "products:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		products, err := db.ListProducts(*owner)
		must(err)
		for _, p := range products {
			fmt.Printf("%s\t%.2f\t%s\t%s\n", p.ID, p.BasePrice, p.Category, p.Name)
		}
		fmt.Printf("total: %d products\n", len(products))
	case "products:create":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "product name")
		description := fs.String("description", "", "product description")
		price := fs.Float64("price", 0, "base unit price")
		category := fs.String("category", "General", "category")
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		p := internal.Product{
			ID:              uuid.NewString(),
			Name:            *name,
			Description:     *description,
			BasePrice:       *price,
			Category:        *category,
			Characteristics: internal.Characteristics{},
			OwnerID:         *owner,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		}
		must(db.InsertProduct(p))
		fmt.Printf("created product id=%s\n", p.ID)
	case "products:clear":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		deleted, err := db.DeleteProductsByOwner(*owner)
		must(err)
		fmt.Printf("deleted %d products\n", deleted)
	case "tariff:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "tariff file (.pdf .csv)")
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		data, err := os.ReadFile(*file)
		must(err)
		extractor := tariff.NewExtractor()
		techniques, err := extractor.Extract(*owner, filepath.Base(*file), data)
		must(err)
		must(db.InsertTechniques(techniques))
		fmt.Printf("imported %d marking techniques\n", len(techniques))
	case "techniques:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		techniques, err := db.ListTechniques(*owner)
		must(err)
		for _, t := range techniques {
			fmt.Printf("%s\t%.2f\t%s\n", t.ID, t.CostPerUnit, t.Name)
		}
		fmt.Printf("total: %d techniques\n", len(techniques))
	case "techniques:create":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "technique name")
		cost := fs.Float64("cost", 0, "cost per unit")
		description := fs.String("description", "", "description")
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		t := internal.MarkingTechnique{
			ID:          uuid.NewString(),
			Name:        *name,
			CostPerUnit: *cost,
			Description: *description,
			OwnerID:     *owner,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		must(db.InsertTechnique(t))
		fmt.Printf("created technique id=%s\n", t.ID)
	case "quote:generate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		client := fs.String("client", "", "client name")
		request := fs.String("request", "", "free-text request")
		qty := fs.Int("qty", 0, "quantity")
		techniques := fs.String("techniques", "", "comma-separated technique names")
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*request) == "" || *qty <= 0 {
			must(fmt.Errorf("--request and a positive --qty are required"))
		}
		svc := quote.NewService(db, cfg)
		q, err := svc.Generate(*owner, *client, *request, *qty, splitList(*techniques))
		must(err)
		b := q.Products[0]
		fmt.Printf("quote id=%s categoria=%s\n", q.ID, b.Parsed.Categoria)
		fmt.Printf("  basica:  %.2f €/ud  total %.2f €\n", b.Basic.UnitPrice, q.TotalBasic)
		fmt.Printf("  media:   %.2f €/ud  total %.2f €\n", b.Medium.UnitPrice, q.TotalMedium)
		fmt.Printf("  premium: %.2f €/ud  total %.2f €\n", b.Premium.UnitPrice, q.TotalPremium)
	case "quote:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "quote id")
		out := fs.String("out", "", "output xlsx path")
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		q, err := db.GetQuote(*owner, *id)
		must(err)
		if q == nil {
			must(fmt.Errorf("quote not found: %s", *id))
		}
		outputPath := *out
		if strings.TrimSpace(outputPath) == "" {
			outputPath = filepath.Join(cfg.OutputDir, fmt.Sprintf("presupuesto_%s.xlsx", q.ID))
		}
		must(quote.ExportQuoteXLSX(*q, outputPath))
		fmt.Printf("exported quote %s to %s\n", q.ID, outputPath)
	case "quotes:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		owner := fs.String("owner", cfg.DefaultOwner, "owner id")
		_ = fs.Parse(os.Args[2:])
		quotes, err := db.ListQuotes(*owner)
		must(err)
		for _, q := range quotes {
			fmt.Printf("%s\t%s\t%s\tbasic=%.2f medium=%.2f premium=%.2f\n",
				q.ID, q.CreatedAt, q.ClientName, q.TotalBasic, q.TotalMedium, q.TotalPremium)
		}
		fmt.Printf("total: %d quotes\n", len(quotes))
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", cfg.MailListenerFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", cfg.MailListenerBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := listener.NewProcessingService(db, cfg)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed email id=%d products=%d techniques=%d\n", res.EmailID, res.Products, res.Techniques)
			return
		}
		processedEmails, processedProducts, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d products=%d\n", processedEmails, processedProducts)
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: presup <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:import --file=./catalogo.xlsx [--owner=local]")
	fmt.Println("  products:list [--owner=local]")
	fmt.Println("  products:create --name=... [--price=0] [--category=General] [--description=...]")
	fmt.Println("  products:clear [--owner=local]")
	fmt.Println("  tariff:import --file=./tarifa.pdf [--owner=local]")
	fmt.Println("  techniques:list [--owner=local]")
	fmt.Println("  techniques:create --name=... [--cost=0] [--description=...]")
	fmt.Println("  quote:generate --request=\"...\" --qty=50 [--client=...] [--techniques=a,b]")
	fmt.Println("  quote:export --id=... [--out=...xlsx]")
	fmt.Println("  quotes:list [--owner=local]")
	fmt.Println("  mail:fetch --provider=gmail|imap [--label=INBOX] [--max=20]")
	fmt.Println("  mail:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
