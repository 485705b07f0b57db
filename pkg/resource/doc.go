/*
Package resource is a generic client of REST resources.

A Resource is defined by a URL template with named path parameters, for example:

	v3/posts/:id/comments/:commentId

Each verb (Query, Get, Save, Update, Delete, Search, Count) returns a lazy request.APIRequest,
nothing is built or sent until the Send method is called. On Send:
  - The base Config of the resource is merged with the per-call options, see Merge.
  - The access token is read from the tokenstore.Store, if the authentication is enabled, see Authenticate.
  - Placeholders in the template are replaced by identifiers, missing ones are removed with their segment, see Template.Resolve.
  - The URL suffix and the query string are appended, see EncodeQuery.
  - The request is sent by the request.Sender, usually the client.Client.
  - The response body is decoded as JSON to the Payload, regardless of the response content type.

The base Config is never modified by a call, each call works with its own copy.

Example:

	c := client.New().WithBaseURL("https://api.example.com")
	posts := resource.New(c, "v3/posts/:id", resource.WithTokenStore(store))
	payload, err := posts.Get(resource.NewParams(resource.Param("id", 123)), resource.WithAuth(true)).Send(ctx)
*/
package resource
