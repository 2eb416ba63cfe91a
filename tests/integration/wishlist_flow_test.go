package integration

import (
	"testing"
)

// TestAddItemToWishlist verifies that a product can be saved for later.
func TestAddItemToWishlist(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("wish-add")
	headers := map[string]string{"X-Session-ID": session}
	productID := uniqueUUID()

	body := map[string]interface{}{
		"product_id":   productID,
		"product_name": "Wish Widget",
		"price":        59.99,
		"image":        "https://example.com/wish.png",
	}
	status, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items", body, headers)
	requireStatus(t, status, 200)

	if added := extractField(data, "data.added"); added != true {
		t.Fatalf("expected added true, got %v", added)
	}
	items := extractArray(t, data, "data.wishlist.items")
	if len(items) != 1 {
		t.Fatalf("expected 1 wishlist item, got %d", len(items))
	}
}

// TestWishlistRejectsDuplicates verifies that adding the same product twice
// leaves a single entry and reports added=false.
func TestWishlistRejectsDuplicates(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("wish-dup")
	headers := map[string]string{"X-Session-ID": session}
	productID := uniqueUUID()

	body := map[string]interface{}{
		"product_id":   productID,
		"product_name": "Duplicate Widget",
		"price":        15.00,
	}
	s1, _ := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items", body, headers)
	requireStatus(t, s1, 200)

	s2, data := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items", body, headers)
	requireStatus(t, s2, 200)

	if added := extractField(data, "data.added"); added != false {
		t.Fatalf("expected added false on duplicate, got %v", added)
	}
	items := extractArray(t, data, "data.wishlist.items")
	if len(items) != 1 {
		t.Fatalf("expected 1 wishlist item after duplicate add, got %d", len(items))
	}
}

// TestWishlistContains verifies the membership predicate.
func TestWishlistContains(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("wish-contains")
	headers := map[string]string{"X-Session-ID": session}
	productID := uniqueUUID()

	body := map[string]interface{}{
		"product_id":   productID,
		"product_name": "Contains Widget",
		"price":        8.75,
	}
	addStatus, _ := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items", body, headers)
	requireStatus(t, addStatus, 200)

	inStatus, inData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items/"+productID, headers)
	requireStatus(t, inStatus, 200)
	if contains := extractField(inData, "data.contains"); contains != true {
		t.Fatalf("expected contains true, got %v", contains)
	}

	outStatus, outData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items/"+uniqueUUID(), headers)
	requireStatus(t, outStatus, 200)
	if contains := extractField(outData, "data.contains"); contains != false {
		t.Fatalf("expected contains false for unknown product, got %v", contains)
	}
}

// TestRemoveWishlistItem verifies that an entry can be removed.
func TestRemoveWishlistItem(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("wish-remove")
	headers := map[string]string{"X-Session-ID": session}
	productID := uniqueUUID()

	body := map[string]interface{}{
		"product_id":   productID,
		"product_name": "Remove Wish Widget",
		"price":        22.00,
	}
	addStatus, _ := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items", body, headers)
	requireStatus(t, addStatus, 200)

	delStatus, delData := httpDeleteWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items/"+productID, headers)
	requireStatus(t, delStatus, 200)

	if items := extractField(delData, "data.items"); items != nil {
		if arr, ok := items.([]interface{}); ok && len(arr) > 0 {
			t.Fatalf("expected empty wishlist after removal, got %d items", len(arr))
		}
	}
}

// TestClearWishlist verifies that the whole list can be discarded.
func TestClearWishlist(t *testing.T) {
	skipIfNotRunning(t, storePort)

	session := uniqueSession("wish-clear")
	headers := map[string]string{"X-Session-ID": session}

	body := map[string]interface{}{
		"product_id":   uniqueUUID(),
		"product_name": "Clear Wish Widget",
		"price":        30.00,
	}
	addStatus, _ := httpPostWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist/items", body, headers)
	requireStatus(t, addStatus, 200)

	clearStatus, clearData := httpDeleteWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist", headers)
	requireStatus(t, clearStatus, 200)
	if got := extractString(t, clearData, "data.status"); got != "cleared" {
		t.Fatalf("expected status cleared, got %q", got)
	}

	getStatus, getData := httpGetWithHeaders(t, baseURL(storePort)+"/api/v1/wishlist", headers)
	requireStatus(t, getStatus, 200)
	if items := extractField(getData, "data.items"); items != nil {
		if arr, ok := items.([]interface{}); ok && len(arr) > 0 {
			t.Fatalf("expected empty wishlist after clear, got %d items", len(arr))
		}
	}
}

// TestWishlistRequiresSession verifies that wishlist endpoints demand the
// X-Session-ID header.
func TestWishlistRequiresSession(t *testing.T) {
	skipIfNotRunning(t, storePort)

	status, data := httpGet(t, baseURL(storePort)+"/api/v1/wishlist")
	if status != 400 {
		t.Fatalf("expected status 400 when X-Session-ID is missing, got %d; body: %v", status, data)
	}
}
