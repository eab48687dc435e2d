package cli

import (
	"context"
	"fmt"
	"os"
)

// AddPost prompts for a title, a body, and an optional image file. When a
// file path is given, the client requests a presigned URL, uploads the file
// and submits the resulting storage key with the post.
func (a *App) AddPost(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}

	content, err := GetMultiline(a.reader, "Enter content", os.Stdout)
	if err != nil {
		return err
	}

	path, err := getSimpleText(a.reader, "Image file path (leave empty to skip)", os.Stdout)
	if err != nil {
		return err
	}

	var imageKey string
	if path != "" {
		key, url, err := a.client.PresignUpload(ctx)
		if err != nil {
			fmt.Println("Upload failed:", err)
			return err
		}
		if err := a.client.UploadFile(ctx, url, path); err != nil {
			fmt.Println("Upload failed:", err)
			return err
		}
		imageKey = key
	}

	post, err := a.client.CreatePost(ctx, title, content, imageKey)
	if err != nil {
		fmt.Println("Create failed:", err)
		return err
	}

	fmt.Println("Created post", post.ID)
	return nil
}

// List prints the feed, newest first.
func (a *App) List(ctx context.Context) error {
	posts, err := a.client.ListPosts(ctx)
	if err != nil {
		fmt.Println("List failed:", err)
		return err
	}

	if len(posts) == 0 {
		fmt.Println("No posts yet")
		return nil
	}

	for _, p := range posts {
		owner := ""
		if p.Creator == a.userID {
			owner = " (yours)"
		}
		fmt.Printf("%s  %s%s\n", p.ID, p.Title, owner)
	}
	return nil
}

// DeletePost prompts for a post id and deletes it. The server refuses posts
// the caller does not own.
func (a *App) DeletePost(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter post id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.DeletePost(ctx, id); err != nil {
		fmt.Println("Delete failed:", err)
		return err
	}

	fmt.Println("Deleted")
	return nil
}
