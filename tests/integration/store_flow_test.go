package integration

import (
	"strings"
	"testing"
	"time"
)

// TestListTriggers verifies that the storefront's UI actions are registered.
func TestListTriggers(t *testing.T) {
	skipIfNotRunning(t, storePort)

	headers := map[string]string{"X-Session-ID": uniqueSession("store-triggers")}
	status, data := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers", headers)
	requireStatus(t, status, 200)

	triggers := extractArray(t, data, "data.triggers")
	for _, name := range []string{"add-to-cart", "add-to-wishlist", "newsletter", "quick-view", "search"} {
		if !containsString(triggers, name) {
			t.Fatalf("expected trigger %q to be registered, got %v", name, triggers)
		}
	}
}

// TestFireAddToCartTrigger fires the page's add-to-cart action and checks
// the notice, refreshed badges and reset task that come back.
func TestFireAddToCartTrigger(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("store-cart-trigger")
	headers := map[string]string{"X-Session-ID": session}
	productName := "Trigger Widget"

	body := map[string]interface{}{
		"attrs": map[string]string{
			"product_id":   uniqueUUID(),
			"product_name": productName,
			"price":        "24.99",
			"quantity":     "2",
		},
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/add-to-cart", body, headers)
	requireStatus(t, status, 200)

	message := extractString(t, data, "data.notice.message")
	if !strings.Contains(message, productName) {
		t.Fatalf("expected notice to name the product, got %q", message)
	}
	if sev := extractString(t, data, "data.notice.severity"); sev != "success" {
		t.Fatalf("expected success notice, got %q", sev)
	}
	if count := extractFloat(t, data, "data.badges.cart_count"); count != 2 {
		t.Fatalf("expected cart badge 2, got %v", count)
	}
	if count := extractFloat(t, data, "data.data.cart_count"); count != 2 {
		t.Fatalf("expected cart count 2 in payload, got %v", count)
	}

	// The trigger schedules its loading-state reset as a queryable task.
	taskID := extractString(t, data, "data.task.id")
	if name := extractString(t, data, "data.task.name"); name != "trigger-reset" {
		t.Fatalf("expected trigger-reset task, got %q", name)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		taskStatus, taskData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/tasks/"+taskID, headers)
		requireStatus(t, taskStatus, 200)
		if got := extractString(t, taskData, "data.task.status"); got == "done" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task %s not done after 5s", taskID)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// TestFireTriggerUpdatesBadges verifies the badge endpoint reflects a fired
// trigger.
func TestFireTriggerUpdatesBadges(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("store-badges")
	headers := map[string]string{"X-Session-ID": session}

	before, beforeData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/badges", headers)
	requireStatus(t, before, 200)
	if count := extractFloat(t, beforeData, "data.cart_count"); count != 0 {
		t.Fatalf("expected fresh session cart badge 0, got %v", count)
	}

	body := map[string]interface{}{
		"attrs": map[string]string{
			"product_id":   uniqueUUID(),
			"product_name": "Badge Widget",
			"price":        "9.99",
		},
	}
	fireStatus, _ := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/add-to-cart", body, headers)
	requireStatus(t, fireStatus, 200)

	after, afterData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/badges", headers)
	requireStatus(t, after, 200)
	if count := extractFloat(t, afterData, "data.cart_count"); count != 1 {
		t.Fatalf("expected cart badge 1 after trigger, got %v", count)
	}
}

// TestNoticesListAndDismiss verifies that a trigger's notice is listed for
// the session and can be dismissed before it expires.
func TestNoticesListAndDismiss(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("store-notices")
	headers := map[string]string{"X-Session-ID": session}

	body := map[string]interface{}{
		"attrs": map[string]string{
			"product_id":   uniqueUUID(),
			"product_name": "Notice Widget",
			"price":        "14.50",
		},
	}
	fireStatus, fireData := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/add-to-cart", body, headers)
	requireStatus(t, fireStatus, 200)
	noticeID := extractString(t, fireData, "data.notice.id")

	// Notices expire after a few seconds; read immediately.
	listStatus, listData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/notices", headers)
	requireStatus(t, listStatus, 200)
	notices := extractArray(t, listData, "data")
	found := false
	for _, n := range notices {
		if notice, ok := n.(map[string]interface{}); ok && notice["id"] == noticeID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected notice %s in active list, got %v", noticeID, notices)
	}

	dismissStatus, dismissData := httpDeleteWithHeaders(t, baseURL(storePort)+"/api/v1/store/notices/"+noticeID, headers)
	requireStatus(t, dismissStatus, 200)
	if got := extractString(t, dismissData, "data.status"); got != "dismissed" {
		t.Fatalf("expected status dismissed, got %q", got)
	}

	afterStatus, afterData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/notices", headers)
	requireStatus(t, afterStatus, 200)
	for _, n := range extractArray(t, afterData, "data") {
		if notice, ok := n.(map[string]interface{}); ok && notice["id"] == noticeID {
			t.Fatalf("notice %s still listed after dismissal", noticeID)
		}
	}
}

// TestFireUnknownTrigger verifies that an unregistered trigger name 404s.
func TestFireUnknownTrigger(t *testing.T) {
	skipIfNotRunning(t, storePort)

	headers := map[string]string{"X-Session-ID": uniqueSession("store-unknown")}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/does-not-exist", nil, headers)
	if status != 404 {
		t.Fatalf("expected status 404 for unknown trigger, got %d; body: %v", status, data)
	}
}

// TestSearchTriggerGuardsEmptyQuery verifies the search box guard: an empty
// query is rejected without consulting the engine.
func TestSearchTriggerGuardsEmptyQuery(t *testing.T) {
	skipIfNotRunning(t, storePort)

	headers := map[string]string{"X-Session-ID": uniqueSession("store-search-guard")}
	body := map[string]interface{}{
		"attrs": map[string]string{"query": "   "},
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/search", body, headers)
	if status != 400 {
		t.Fatalf("expected status 400 for empty search, got %d; body: %v", status, data)
	}
	if msg := extractString(t, data, "error.message"); !strings.Contains(msg, "search term") {
		t.Fatalf("expected search guard message, got %q", msg)
	}
}

// TestBootstrap verifies the page-ready payload: badges, tooltips,
// registered triggers and the immediate reveal pass over the supplied
// geometry.
func TestBootstrap(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("store-bootstrap")
	headers := map[string]string{"X-Session-ID": session}

	body := map[string]interface{}{
		"elements": []map[string]interface{}{
			{"id": "hero-banner", "top": 200},
			{"id": "footer-promo", "top": 5000},
		},
		"scroll_top":      0,
		"viewport_height": 800,
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/bootstrap", body, headers)
	requireStatus(t, status, 200)

	if badges := extractField(data, "data.badges"); badges == nil {
		t.Fatal("expected badges in bootstrap payload, got nil")
	}
	if tooltips := extractArray(t, data, "data.tooltips"); len(tooltips) == 0 {
		t.Fatal("expected tooltip hints in bootstrap payload")
	}
	triggers := extractArray(t, data, "data.triggers")
	if !containsString(triggers, "add-to-cart") {
		t.Fatalf("expected add-to-cart in bootstrap triggers, got %v", triggers)
	}

	revealed := extractArray(t, data, "data.revealed")
	if !containsString(revealed, "hero-banner") {
		t.Fatalf("expected hero-banner revealed at bootstrap, got %v", revealed)
	}
	if containsString(revealed, "footer-promo") {
		t.Fatalf("expected footer-promo below the fold, got %v", revealed)
	}
}

// TestScrollReveal verifies that scrolling reveals below-fold elements and
// that reveals are monotonic.
func TestScrollReveal(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("store-scroll")
	headers := map[string]string{"X-Session-ID": session}

	elements := []map[string]interface{}{
		{"id": "deep-section", "top": 5000},
	}

	// Above the fold where the element is still hidden.
	hiddenBody := map[string]interface{}{
		"elements":        elements,
		"scroll_top":      0,
		"viewport_height": 800,
	}
	hiddenStatus, hiddenData := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/scroll", hiddenBody, headers)
	requireStatus(t, hiddenStatus, 200)
	if newly := extractField(hiddenData, "data.newly_revealed"); newly != nil {
		if arr, ok := newly.([]interface{}); ok && len(arr) > 0 {
			t.Fatalf("expected nothing revealed at scroll_top 0, got %v", arr)
		}
	}

	// Scroll far enough that the element enters the viewport past the
	// reveal threshold.
	revealBody := map[string]interface{}{
		"elements":        elements,
		"scroll_top":      4500,
		"viewport_height": 800,
	}
	revealStatus, revealData := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/scroll", revealBody, headers)
	requireStatus(t, revealStatus, 200)
	if newly := extractArray(t, revealData, "data.newly_revealed"); !containsString(newly, "deep-section") {
		t.Fatalf("expected deep-section newly revealed, got %v", newly)
	}

	// Reveals are monotonic: a repeat observation reports nothing new but
	// the element stays revealed.
	repeatStatus, repeatData := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/scroll", revealBody, headers)
	requireStatus(t, repeatStatus, 200)
	if newly := extractField(repeatData, "data.newly_revealed"); newly != nil {
		if arr, ok := newly.([]interface{}); ok && len(arr) > 0 {
			t.Fatalf("expected no new reveals on repeat, got %v", arr)
		}
	}
	if revealed := extractArray(t, repeatData, "data.revealed"); !containsString(revealed, "deep-section") {
		t.Fatalf("expected deep-section to stay revealed, got %v", revealed)
	}
}

// TestGetUnknownTask verifies that looking up a missing task 404s.
func TestGetUnknownTask(t *testing.T) {
	skipIfNotRunning(t, storePort)

	headers := map[string]string{"X-Session-ID": uniqueSession("store-task")}
	status, _ := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/store/tasks/"+uniqueUUID(), headers)
	requireStatus(t, status, 404)
}

// TestStoreRequiresSession verifies that storefront endpoints demand the
// X-Session-ID header.
func TestStoreRequiresSession(t *testing.T) {
	skipIfNotRunning(t, storePort)

	status, data := httpGet(t, baseURL(storePort)+"/api/v1/store/badges")
	if status != 400 {
		t.Fatalf("expected status 400 when X-Session-ID is missing, got %d; body: %v", status, data)
	}
}

// firstPublishedProduct fetches a product from the public listing for
// trigger tests that need a real catalog entry.
func firstPublishedProduct(t *testing.T) (string, string) {
	t.Helper()
	status, data := httpGet(t, baseURL(storePort)+"/api/v1/products?per_page=1")
	requireStatus(t, status, 200)

	products := extractArray(t, data, "data")
	if len(products) == 0 {
		t.Skip("no published products in catalog; seed the store first")
	}
	product, ok := products[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected product object, got %T", products[0])
	}
	id, _ := product["id"].(string)
	name, _ := product["name"].(string)
	if id == "" {
		t.Fatal("expected product id in listing")
	}
	return id, name
}

// TestFireAddToWishlistTrigger verifies the wishlist entry point: the
// trigger carries only a product_id and the catalog supplies the snapshot.
func TestFireAddToWishlistTrigger(t *testing.T) {
	skipIfNotRunning(t, storePort)

	productID, productName := firstPublishedProduct(t)
	session := uniqueSession("store-wish-trigger")
	headers := map[string]string{"X-Session-ID": session}

	body := map[string]interface{}{
		"attrs": map[string]string{"product_id": productID},
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/add-to-wishlist", body, headers)
	requireStatus(t, status, 200)

	if added := extractField(data, "data.data.added"); added != true {
		t.Fatalf("expected added true, got %v", added)
	}
	if count := extractFloat(t, data, "data.badges.wishlist_count"); count != 1 {
		t.Fatalf("expected wishlist badge 1, got %v", count)
	}
	message := extractString(t, data, "data.notice.message")
	if productName != "" && !strings.Contains(message, productName) {
		t.Fatalf("expected notice to name %q, got %q", productName, message)
	}

	// A second fire is a duplicate: no new entry, info notice.
	dupStatus, dupData := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/add-to-wishlist", body, headers)
	requireStatus(t, dupStatus, 200)
	if added := extractField(dupData, "data.data.added"); added != false {
		t.Fatalf("expected added false on duplicate, got %v", added)
	}
	if count := extractFloat(t, dupData, "data.badges.wishlist_count"); count != 1 {
		t.Fatalf("expected wishlist badge to stay 1, got %v", count)
	}
}

// TestFireAddToWishlistUnknownProduct verifies that the wishlist trigger
// rejects products missing from the catalog.
func TestFireAddToWishlistUnknownProduct(t *testing.T) {
	skipIfNotRunning(t, storePort)

	headers := map[string]string{"X-Session-ID": uniqueSession("store-wish-missing")}
	body := map[string]interface{}{
		"attrs": map[string]string{"product_id": uniqueUUID()},
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/add-to-wishlist", body, headers)
	if status != 404 {
		t.Fatalf("expected status 404 for unknown product, got %d; body: %v", status, data)
	}
}

// TestFireQuickViewTrigger verifies the quick-view trigger returns the
// product summary.
func TestFireQuickViewTrigger(t *testing.T) {
	skipIfNotRunning(t, storePort)

	productID, _ := firstPublishedProduct(t)
	headers := map[string]string{"X-Session-ID": uniqueSession("store-quickview")}

	body := map[string]interface{}{
		"attrs": map[string]string{"product_id": productID},
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/quick-view", body, headers)
	requireStatus(t, status, 200)

	if got := extractString(t, data, "data.data.id"); got != productID {
		t.Fatalf("expected product %s in quick-view payload, got %s", productID, got)
	}
}

// TestFireSearchTrigger verifies the search trigger consults the engine.
func TestFireSearchTrigger(t *testing.T) {
	skipIfNotRunning(t, storePort)

	_, productName := firstPublishedProduct(t)
	if productName == "" {
		t.Skip("listing returned a product without a name")
	}
	term := strings.Fields(productName)[0]

	headers := map[string]string{"X-Session-ID": uniqueSession("store-search")}
	body := map[string]interface{}{
		"attrs": map[string]string{"query": term},
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/store/triggers/search", body, headers)
	requireStatus(t, status, 200)

	if total := extractFloat(t, data, "data.data.total"); total < 1 {
		t.Fatalf("expected at least 1 hit for %q, got %v", term, total)
	}
}
