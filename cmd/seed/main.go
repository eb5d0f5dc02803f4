package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/locallens/locallens-backend/config"
	"github.com/locallens/locallens-backend/internal/app/model"
	"github.com/locallens/locallens-backend/internal/app/repository"
	"github.com/locallens/locallens-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column headers recognised in the first row, case-insensitive. Order does not matter.
const (
	colName        = "name"
	colDescription = "description"
	colPhone       = "phone"
	colEmail       = "email"
	colAddress     = "address"
	colCity        = "city"
	colState       = "state"
	colPostalCode  = "postal_code"
	colLatitude    = "latitude"
	colLongitude   = "longitude"
	colCategories  = "categories" // comma separated
)

var requiredColumns = []string{colName, colAddress, colLatitude, colLongitude}

func main() {
	ownerEmail := flag.String("owner", "", "email of the existing account that will own the imported shops")
	verified := flag.Bool("verified", false, "import shops as verified instead of pending review")
	batchSize := flag.Int("batch", 500, "insert batch size")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: seed -owner admin@example.com [-verified] [-yes] <shops.xlsx>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || *ownerEmail == "" {
		flag.Usage()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db.GetDB())
	shopRepo := repository.NewShopRepository(db.GetDB())

	owner, err := userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(*ownerEmail)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("No account with email %s. Register it or set ADMIN_EMAIL and start the server once.", *ownerEmail)
		}
		log.Fatal("Failed to look up owner:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	shops, err := readShopsFromXLSX(filePath, owner.ID, *verified)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	fmt.Printf("Total shops to import: %d (owner %s, verified=%t)\n", len(shops), owner.Email, *verified)

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := shopRepo.BulkCreate(shops, *batchSize); err != nil {
		log.Fatal("Failed to bulk create shops:", err)
	}

	// importing verified shops makes the owner a retailer
	if *verified && owner.Role == model.RoleCustomer {
		if _, err := userRepo.PromoteToRetailer(owner.ID); err != nil {
			log.Printf("Shops imported but promoting the owner failed: %v", err)
		}
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total shops imported: %d\n", len(shops))
}

func readShopsFromXLSX(filePath string, ownerID uint, verified bool) ([]model.Shop, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}
	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	status := model.VerificationPending
	var verifiedAt *time.Time
	if verified {
		status = model.VerificationVerified
		now := time.Now()
		verifiedAt = &now
	}

	var shops []model.Shop
	seen := make(map[string]bool)
	skipped, invalidCoords := 0, 0

	for i, row := range rows[1:] {
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := cell(colName)
		address := cell(colAddress)
		if len([]rune(name)) < 2 || address == "" {
			skipped++
			continue
		}

		lat, errLat := strconv.ParseFloat(cell(colLatitude), 64)
		lng, errLng := strconv.ParseFloat(cell(colLongitude), 64)
		if errLat != nil || errLng != nil || !model.ValidCoordinates(lat, lng) || (lat == 0 && lng == 0) {
			invalidCoords++
			skipped++
			continue
		}

		key := strings.ToLower(name + "|" + address)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		shops = append(shops, model.Shop{
			OwnerID:            ownerID,
			Name:               name,
			Description:        cell(colDescription),
			Phone:              cell(colPhone),
			Email:              cell(colEmail),
			Address:            address,
			City:               cell(colCity),
			State:              cell(colState),
			PostalCode:         cell(colPostalCode),
			Latitude:           lat,
			Longitude:          lng,
			Categories:         model.NormalizeCategories(strings.Split(cell(colCategories), ",")),
			VerificationStatus: status,
			IsVerified:         verified,
			VerificationDate:   verifiedAt,
			IsActive:           true,
		})

		if (i+1)%1000 == 0 {
			fmt.Printf("Processed %d rows...\n", i+1)
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid shops: %d\n", len(shops))
	fmt.Printf("  Skipped rows: %d\n", skipped)
	fmt.Printf("  Rows with invalid coordinates: %d\n", invalidCoords)

	return shops, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		columns[key] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}
