package cli

import (
	"context"
	"fmt"
	"os"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a name, email and password and attempts to
// create a new account. A successful signup also logs the user in, since
// the server returns a token.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, userID, err := a.client.Register(ctx, name, email, password)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}

	a.client.SetToken(token)
	a.userID = userID
	a.email = email

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, userID, err := a.client.Login(ctx, email, password)
	if err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	a.client.SetToken(token)
	a.userID = userID
	a.email = email

	fmt.Println("Success!")
	return nil
}

// Logout drops the stored token and identity.
func (a *App) Logout(ctx context.Context) error {
	a.client.SetToken("")
	a.userID = ""
	a.email = ""
	fmt.Println("Logged out")
	return nil
}
