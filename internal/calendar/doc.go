// Package calendar provides a thin client for the Google Calendar API,
// scoped to the operations the booking adapter needs: creating events,
// listing events in a time range, and deleting events on the user's
// primary calendar.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, tokenSource)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	events, err := client.ListEvents(ctx, time.Now(), time.Now().AddDate(0, 0, 7))
package calendar
