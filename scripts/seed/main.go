// Package main implements a standalone seed script that populates a running
// dokan store with demo data. Products are created through the admin API,
// then a throwaway shopper session exercises the storefront triggers so the
// demo environment starts with a cart, a wishlist, and a newsletter signup.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

// --------------------------------------------------------------------------
// Configuration helpers
// --------------------------------------------------------------------------

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --------------------------------------------------------------------------
// HTTP helpers
// --------------------------------------------------------------------------

func httpDo(method, url, token, session string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return result, nil
}

func httpPost(url, token, session string, body any) (map[string]any, error) {
	return httpDo(http.MethodPost, url, token, session, body)
}

func httpPut(url, token string, body any) (map[string]any, error) {
	return httpDo(http.MethodPut, url, token, "", body)
}

func httpGet(url string) (map[string]any, error) {
	return httpDo(http.MethodGet, url, "", "", nil)
}

// --------------------------------------------------------------------------
// Seed data definitions
// --------------------------------------------------------------------------

type productDef struct {
	name        string
	description string
	category    string
	brand       string
	price       string
	featured    bool
	published   bool
}

// --------------------------------------------------------------------------
// main
// --------------------------------------------------------------------------

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[seed] ")

	storeURL := getEnv("STORE_URL", "http://localhost:8004")
	adminUser := getEnv("ADMIN_USERNAME", "admin")
	adminPass := getEnv("ADMIN_PASSWORD", "")

	if adminPass == "" {
		log.Fatal("ADMIN_PASSWORD must be set (the plaintext matching the store's ADMIN_PASSWORD_HASH)")
	}

	// ---------------------------------------------------------------
	// 1. Log in as the store admin
	// ---------------------------------------------------------------
	log.Println("Logging in as store admin...")
	loginResp, err := httpPost(storeURL+"/api/v1/auth/login", "", "", map[string]any{
		"username": adminUser,
		"password": adminPass,
	})
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	token := ""
	if data, ok := loginResp["data"].(map[string]any); ok {
		if t, ok := data["token"].(string); ok {
			token = t
		}
	}
	if token == "" {
		log.Fatal("login succeeded but no token in response")
	}
	log.Println("  Logged in, got JWT token.")

	// ---------------------------------------------------------------
	// 2. Seed products via the admin API
	// ---------------------------------------------------------------
	products := []productDef{
		// Electronics
		{"Smartphone X Pro", "Latest flagship smartphone with advanced camera and 5G connectivity.", "Electronics", "TechCorp", "999.99", true, true},
		{"Wireless Bluetooth Headphones", "High-quality wireless headphones with noise cancellation and long battery life.", "Electronics", "TechCorp", "199.99", true, true},
		{"Laptop Ultra", "High-performance laptop for work and gaming with the latest processor.", "Electronics", "TechCorp", "1299.99", true, true},
		{"Smart Watch Active", "Fitness tracker with heart rate monitoring, GPS, and a 7-day battery.", "Electronics", "TechCorp", "249.99", false, true},
		{"Portable Power Bank", "20000mAh fast-charging power bank with dual USB-C output.", "Electronics", "TechCorp", "49.99", false, true},
		{"Bluetooth Speaker Mini", "Pocket-sized speaker with surprisingly rich bass and 12-hour playtime.", "Electronics", "TechCorp", "39.99", false, true},
		// Clothing
		{"Casual T-Shirt", "Comfortable and stylish cotton t-shirt for everyday wear.", "Clothing", "FashionHub", "24.99", false, true},
		{"Slim Fit Jeans", "Modern slim fit denim with stretch for all-day comfort.", "Clothing", "FashionHub", "59.99", false, true},
		{"Hooded Sweatshirt", "Heavyweight fleece hoodie with a kangaroo pocket and ribbed cuffs.", "Clothing", "FashionHub", "44.99", true, true},
		{"Running Sneakers", "Lightweight running shoes with responsive cushioning and breathable mesh.", "Clothing", "FashionHub", "89.99", false, true},
		{"Winter Parka", "Insulated water-resistant parka with a detachable faux-fur hood.", "Clothing", "FashionHub", "149.99", false, true},
		// Home
		{"Ceramic Coffee Mug Set", "Set of four stoneware mugs with a reactive glaze finish.", "Home", "HomeNest", "34.99", false, true},
		{"Walnut Side Table", "Solid walnut side table with a floating top and splayed legs.", "Home", "HomeNest", "149.50", true, true},
		{"Linen Throw Blanket", "Stonewashed linen throw in muted earth tones, 130x170cm.", "Home", "HomeNest", "64.99", false, true},
		// Drafts, not yet visible on the storefront
		{"Leather Messenger Bag", "Full-grain leather bag, still waiting on final photography.", "Clothing", "FashionHub", "179.99", false, false},
		{"Standing Desk Frame", "Dual-motor sit-stand frame, launching next season.", "Home", "HomeNest", "399.00", false, false},
	}

	log.Printf("Seeding %d products via %s ...", len(products), storeURL)

	type createdProduct struct {
		id   string
		slug string
		def  productDef
	}
	var createdProducts []createdProduct

	for i, p := range products {
		body := map[string]any{
			"name":          p.name,
			"description":   p.description,
			"brand_name":    p.brand,
			"category_name": p.category,
			"price":         p.price,
			"featured":      p.featured,
		}
		if p.published {
			body["status"] = "published"
		}

		resp, err := httpPost(storeURL+"/api/v1/products", token, "", body)
		if err != nil {
			log.Printf("  WARNING: create product %q: %v", p.name, err)
			continue
		}

		var productID, productSlug string
		if data, ok := resp["data"].(map[string]any); ok {
			if id, ok := data["id"].(string); ok {
				productID = id
			}
			if slug, ok := data["slug"].(string); ok {
				productSlug = slug
			}
		}
		if productID == "" {
			log.Printf("  WARNING: no product ID in response for %q", p.name)
			continue
		}

		// Give the product a stable image URL derived from its slug.
		imgURL := fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/800", productSlug, i+1)
		if _, err := httpPut(storeURL+"/api/v1/products/"+productID, token, map[string]any{"image": imgURL}); err != nil {
			log.Printf("  WARNING: set image for %q: %v", p.name, err)
		}

		createdProducts = append(createdProducts, createdProduct{id: productID, slug: productSlug, def: p})
		log.Printf("  Product: %s (id=%s)", p.name, productID)
	}

	// ---------------------------------------------------------------
	// 3. Exercise the storefront with a demo shopper session
	// ---------------------------------------------------------------
	session := getEnv("SEED_SESSION_ID", "seed-demo-session")
	log.Printf("Firing storefront triggers for session %q ...", session)

	fired := 0
	for _, cp := range createdProducts {
		if !cp.def.featured || !cp.def.published {
			continue
		}
		if fired >= 2 {
			break
		}

		trigger := "add-to-cart"
		if fired == 1 {
			trigger = "add-to-wishlist"
		}
		attrs := map[string]string{
			"product_id":   cp.id,
			"product_name": cp.def.name,
			"price":        cp.def.price,
			"quantity":     "1",
			"image":        fmt.Sprintf("https://picsum.photos/seed/%s/800/800", cp.slug),
		}

		if _, err := httpPost(storeURL+"/api/v1/store/triggers/"+trigger, "", session, map[string]any{"attrs": attrs}); err != nil {
			log.Printf("  WARNING: fire %s for %q: %v", trigger, cp.def.name, err)
			continue
		}
		log.Printf("  Trigger: %s -> %s", trigger, cp.def.name)
		fired++
	}

	newsletterBody := map[string]any{
		"attrs": map[string]string{"email": getEnv("SEED_EMAIL", "shopper@example.com")},
	}
	if _, err := httpPost(storeURL+"/api/v1/store/triggers/newsletter", "", session, newsletterBody); err != nil {
		log.Printf("  WARNING: newsletter signup: %v", err)
	} else {
		log.Println("  Trigger: newsletter signup")
	}

	// ---------------------------------------------------------------
	// 4. Verify the search index picked everything up
	// ---------------------------------------------------------------
	searchResp, err := httpGet(storeURL + "/api/v1/search?q=smartphone")
	if err != nil {
		log.Printf("WARNING: search verification: %v", err)
	} else if data, ok := searchResp["data"].(map[string]any); ok {
		if total, ok := data["total"].(float64); ok {
			log.Printf("Search verification: %d hit(s) for \"smartphone\".", int(total))
		}
	}

	// ---------------------------------------------------------------
	// Done
	// ---------------------------------------------------------------
	log.Printf("Seed complete! Created %d products.", len(createdProducts))
}
