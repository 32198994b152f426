package sqlinline

const QInsertWebhookEvent = `--sql 685064a8-9283-48e9-8f7f-aa984af0d0cc
insert into webhook_events (event_id, event_type, received_at)
values ($1::text, $2::text, $3::timestamptz)
on conflict (event_id) do nothing;
`

const QDeleteWebhookEvent = `--sql 4b1d8e27-c6a3-4f59-9e02-7a5f3c8d1b64
delete from webhook_events
where event_id = $1::text;
`
