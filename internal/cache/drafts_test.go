package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aj0urdain/Landmark-App-sub000/internal/domain"
)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:             "doc-1",
		ListingID:      "listing-1",
		DocumentTypeID: "brochure",
		DocumentData: domain.DocumentData{
			HeadlineData: &domain.HeadlineData{Headline: "Prime Retail Investment"},
			LogoData: &domain.LogoData{
				LogoCount: 1,
				Logos:     []string{"https://cdn/logo.png"},
			},
		},
	}
}

func TestDraftsSeedIfAbsent(t *testing.T) {
	drafts := NewDrafts(NewShardedCache(4, 3600))
	ctx := context.Background()
	doc := testDocument()
	ref := domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID}
	key := NewDraftKey(ref, domain.SectionHeadline)

	seeded, err := drafts.SeedIfAbsent(ctx, key, doc)
	require.NoError(t, err)
	assert.Equal(t, &domain.HeadlineData{Headline: "Prime Retail Investment"}, seeded)

	require.NoError(t, drafts.Set(ctx, key, &domain.HeadlineData{Headline: "Edited"}))

	again, err := drafts.SeedIfAbsent(ctx, key, doc)
	require.NoError(t, err)
	assert.Equal(t, &domain.HeadlineData{Headline: "Edited"}, again, "existing draft must win over the document")
}

func TestDraftsSeedMissingSection(t *testing.T) {
	drafts := NewDrafts(NewShardedCache(4, 3600))
	ctx := context.Background()
	doc := testDocument()
	ref := domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID}

	v, err := drafts.SeedIfAbsent(ctx, NewDraftKey(ref, domain.SectionFinance), doc)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, ok := drafts.Get(ctx, NewDraftKey(ref, domain.SectionFinance))
	assert.False(t, ok)
}

func TestDraftsSeedCopiesDocumentSlices(t *testing.T) {
	drafts := NewDrafts(NewShardedCache(4, 3600))
	ctx := context.Background()
	doc := testDocument()
	require.NoError(t, drafts.SeedDocument(ctx, doc))

	ref := domain.DocumentRef{ListingID: doc.ListingID, DocumentTypeID: doc.DocumentTypeID}
	v, ok := drafts.Get(ctx, NewDraftKey(ref, domain.SectionLogo))
	require.True(t, ok)

	doc.DocumentData.LogoData.Logos[0] = "mutated"
	assert.Equal(t, "https://cdn/logo.png", v.(*domain.LogoData).Logos[0])
}

func TestDraftsSubscribeDocument(t *testing.T) {
	drafts := NewDrafts(NewShardedCache(4, 3600))
	ctx := context.Background()
	ref := domain.DocumentRef{ListingID: "listing-1", DocumentTypeID: "brochure"}
	other := domain.DocumentRef{ListingID: "listing-2", DocumentTypeID: "brochure"}

	var sections []domain.Section
	unsubscribe := drafts.SubscribeDocument(ref, func(section domain.Section, _ interface{}) {
		sections = append(sections, section)
	})
	defer unsubscribe()

	require.NoError(t, drafts.Set(ctx, NewDraftKey(ref, domain.SectionPhoto), &domain.PhotoData{PhotoCount: 2}))
	require.NoError(t, drafts.Set(ctx, NewDraftKey(other, domain.SectionPhoto), &domain.PhotoData{PhotoCount: 3}))
	require.NoError(t, drafts.Set(ctx, NewDraftKey(ref, domain.SectionHeadline), &domain.HeadlineData{}))

	assert.Equal(t, []domain.Section{domain.SectionPhoto, domain.SectionHeadline}, sections)
}

func TestDraftKeysWithSeparatorsDoNotCollide(t *testing.T) {
	a := NewDraftKey(domain.DocumentRef{ListingID: "a:b", DocumentTypeID: "c"}, domain.SectionHeadline)
	b := NewDraftKey(domain.DocumentRef{ListingID: "a", DocumentTypeID: "b:c"}, domain.SectionHeadline)
	assert.NotEqual(t, a.String(), b.String())

	drafts := NewDrafts(NewShardedCache(4, 3600))
	ctx := context.Background()
	require.NoError(t, drafts.Set(ctx, a, &domain.HeadlineData{Headline: "first"}))

	_, ok := drafts.Get(ctx, b)
	assert.False(t, ok)
}
