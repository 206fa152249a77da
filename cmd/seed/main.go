// Package main seeds the catalog database with a small demo data set so a
// fresh install has something to read, warm up and invalidate.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"tempocache/domain/catalog"
	"tempocache/infrastructure/badgerdb"
	"tempocache/infrastructure/config"
)

type seedAlbum struct {
	id     string
	title  string
	year   int
	tracks int
}

type seedArtist struct {
	id         string
	name       string
	genre      string
	popularity int
	albums     []seedAlbum
}

var seedData = []seedArtist{
	{id: "42", name: "Madonna", genre: "pop", popularity: 95, albums: []seedAlbum{
		{id: "1", title: "Like a Virgin", year: 1984, tracks: 9},
		{id: "2", title: "Like a Prayer", year: 1989, tracks: 11},
		{id: "3", title: "Ray of Light", year: 1998, tracks: 13},
	}},
	{id: "7", name: "Prince", genre: "funk", popularity: 91, albums: []seedAlbum{
		{id: "1", title: "Purple Rain", year: 1984, tracks: 9},
		{id: "2", title: "Sign o' the Times", year: 1987, tracks: 16},
	}},
	{id: "3", name: "Kate Bush", genre: "art pop", popularity: 88, albums: []seedAlbum{
		{id: "1", title: "Hounds of Love", year: 1985, tracks: 12},
	}},
	{id: "15", name: "Miles Davis", genre: "jazz", popularity: 84, albums: []seedAlbum{
		{id: "1", title: "Kind of Blue", year: 1959, tracks: 5},
	}},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := badgerdb.Open(cfg.BadgerPath, cfg.BadgerInMemory, logger)
	if err != nil {
		logger.Fatal("failed to open catalog database", zap.Error(err))
	}
	defer db.Close()

	artistEntries := make(map[string]catalog.Artist)
	albumEntries := make(map[string]catalog.Album)
	for _, seed := range seedData {
		artist, err := catalog.NewArtist(seed.id, seed.name, seed.genre, seed.popularity)
		if err != nil {
			logger.Fatal("invalid seed artist", zap.String("name", seed.name), zap.Error(err))
		}
		artistEntries[artist.Key()] = artist
		for _, entry := range seed.albums {
			album, err := catalog.NewAlbum(entry.id, seed.id, entry.title, entry.year, entry.tracks)
			if err != nil {
				logger.Fatal("invalid seed album", zap.String("title", entry.title), zap.Error(err))
			}
			albumEntries[album.Key()] = album
		}
	}

	ctx := context.Background()
	artists := badgerdb.NewSystem[catalog.Artist](db, catalog.KindPrefix(catalog.KindArtist), nil)
	albums := badgerdb.NewSystem[catalog.Album](db, catalog.KindPrefix(catalog.KindAlbum), nil)

	if err := artists.PersistMany(ctx, artistEntries); err != nil {
		logger.Fatal("failed to seed artists", zap.Error(err))
	}
	if err := albums.PersistMany(ctx, albumEntries); err != nil {
		logger.Fatal("failed to seed albums", zap.Error(err))
	}

	logger.Info("catalog seeded",
		zap.Int("artists", len(artistEntries)),
		zap.Int("albums", len(albumEntries)),
		zap.String("path", cfg.BadgerPath),
	)
}
